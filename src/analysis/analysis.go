// Package analysis turns a monitor_info.csv file into per-column means:
// LoadRecords (strict parse with lenient fallback), Clean (two stage numeric
// filter) and ComputeAggregate. AnalyzeFile runs all three.
package analysis

import (
	"fmt"
	"time"

	"github.com/lv13614133158/df-code/src/monitor"
)

// AnalyzeFile loads, cleans and aggregates one info file.
func AnalyzeFile(path string) (Aggregate, error) {
	defer monitor.TimeTrack(time.Now(), "analyze "+path)
	monitor.Debugf("reading resource samples from %s", path)
	lr, err := LoadRecords(path)
	if err != nil {
		return Aggregate{}, err
	}
	return Analyze(lr)
}

// Analyze cleans and aggregates already loaded records, carrying the loader's
// row accounting into the result.
func Analyze(lr LoadResult) (Aggregate, error) {
	cleaned := Clean(lr.Records)
	agg, err := ComputeAggregate(cleaned)
	if err != nil {
		return Aggregate{}, fmt.Errorf("%d rows loaded: %w", len(lr.Records), err)
	}
	agg.LoadedRows = len(lr.Records)
	agg.SkippedLines = lr.Skipped
	agg.Lenient = lr.Lenient
	if agg.ProcessAbsent {
		monitor.Infof("no numeric idps_cpu/idps_mem values; IDPS usage reported as 0")
	}
	monitor.Debugf("aggregate: rows=%d cpu_rows=%d process_rows=%d usr=%.2f sys=%.2f idle=%.2f idps_cpu=%.2f idps_mem=%.0f",
		agg.LoadedRows, agg.CPURows, agg.ProcessRows, agg.AvgUsr, agg.AvgSys, agg.AvgIdle, agg.AvgIDPSCPU, agg.AvgIDPSMem)
	return agg, nil
}
