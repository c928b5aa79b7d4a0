package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lv13614133158/df-code/src/monitor"
)

var (
	// ErrStructural marks a row-structure problem (field count, quoting). Only
	// this kind triggers the lenient retry.
	ErrStructural = errors.New("malformed csv structure")
	// ErrNoRecords means no data row survived parsing.
	ErrNoRecords = errors.New("no data rows")
)

// LoadResult is the loader output.
type LoadResult struct {
	Records []monitor.Record
	// Lenient is set when the strict parse failed and rows were recovered by skipping.
	Lenient bool
	// Skipped counts malformed rows dropped by the lenient parse.
	Skipped int
}

// LoadRecords reads an info file: one banner line, then 9-field rows with no header.
func LoadRecords(path string) (LoadResult, error) {
	defer monitor.TimeTrack(time.Now(), "load "+path)
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, err
	}
	defer f.Close()
	return LoadRecordsFrom(f, path)
}

// LoadRecordsFrom is LoadRecords over an already open stream; name is used in messages.
// The input is read once and parsed at most twice (strict, then lenient).
func LoadRecordsFrom(r io.Reader, name string) (LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read %s: %w", name, err)
	}
	body := skipBanner(data)

	recs, err := ParseStrict(body)
	if err == nil {
		if len(recs) == 0 {
			return LoadResult{}, fmt.Errorf("%s: %w", name, ErrNoRecords)
		}
		return LoadResult{Records: recs}, nil
	}
	if !errors.Is(err, ErrStructural) {
		return LoadResult{}, fmt.Errorf("parse %s: %w", name, err)
	}
	monitor.Warnf("%s: %v; skipping malformed rows", name, err)

	recs, skipped, err := ParseLenient(body)
	if err != nil {
		return LoadResult{}, fmt.Errorf("lenient parse %s: %w", name, err)
	}
	if len(recs) == 0 {
		return LoadResult{}, fmt.Errorf("%s: %d malformed rows skipped: %w", name, skipped, ErrNoRecords)
	}
	monitor.Infof("%s: recovered %d rows, skipped %d malformed", name, len(recs), skipped)
	return LoadResult{Records: recs, Lenient: true, Skipped: skipped}, nil
}

// ParseStrict parses data rows (banner already removed). Every row must have
// exactly monitor.NumColumns fields; the first violation is returned wrapped in ErrStructural.
func ParseStrict(body []byte) ([]monitor.Record, error) {
	r := newCSVReader(body)
	r.FieldsPerRecord = monitor.NumColumns
	var out []monitor.Record
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: %v", ErrStructural, pe)
			}
			return nil, err
		}
		rec, _ := monitor.RecordFromFields(fields)
		out = append(out, rec)
	}
	return out, nil
}

// ParseLenient parses data rows one line at a time, dropping any line with the
// wrong field count or broken quoting, and returns how many were dropped. An
// unclosed quote only costs its own line.
func ParseLenient(body []byte) ([]monitor.Record, int, error) {
	var out []monitor.Record
	skipped := 0
	for i, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lineNo := i + 2 // banner is line 1
		r := newCSVReader(line)
		r.FieldsPerRecord = monitor.NumColumns
		r.LazyQuotes = true
		fields, err := r.Read()
		if err != nil {
			monitor.Debugf("skip line %d: %v (want %s)", lineNo, err, strings.Join(monitor.Columns, ","))
			skipped++
			continue
		}
		rec, ok := monitor.RecordFromFields(fields)
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func newCSVReader(body []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(body))
	r.ReuseRecord = false
	return r
}

// skipBanner drops everything up to and including the first newline.
func skipBanner(data []byte) []byte {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil
	}
	return data[i+1:]
}
