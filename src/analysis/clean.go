package analysis

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/lv13614133158/df-code/src/monitor"
)

// CleanRow is a record that passed one or both cleaning stages, with the
// coerced values of the cleaned columns.
type CleanRow struct {
	monitor.Record
	Idle float64
	// IDPS values are only meaningful for rows in Cleaned.Process.
	IDPSCPU float64
	IDPSMem float64
}

// Cleaned holds the output of both cleaning stages.
type Cleaned struct {
	// CPU is the stage 1 output: rows with a numeric idle_cpu.
	CPU []CleanRow
	// Process is the stage 2 output: rows of CPU that also have numeric idps_cpu and idps_mem.
	Process []CleanRow
}

// Columns each cleaning stage requires to be numeric.
var (
	cpuStageColumns     = []string{"idle_cpu"}
	processStageColumns = []string{"idps_cpu", "idps_mem"}
)

// Clean runs the two stage filter. Stage 2 consumes stage 1's output.
func Clean(records []monitor.Record) Cleaned {
	var c Cleaned
	c.CPU = make([]CleanRow, 0, len(records))
	for _, r := range records {
		vals, ok := coerceColumns(r, cpuStageColumns)
		if !ok {
			continue
		}
		c.CPU = append(c.CPU, CleanRow{Record: r, Idle: vals[0]})
	}
	c.Process = make([]CleanRow, 0, len(c.CPU))
	for _, row := range c.CPU {
		vals, ok := coerceColumns(row.Record, processStageColumns)
		if !ok {
			continue
		}
		row.IDPSCPU, row.IDPSMem = vals[0], vals[1]
		c.Process = append(c.Process, row)
	}
	if dropped := len(records) - len(c.CPU); dropped > 0 {
		monitor.Debugf("clean: dropped %d rows with non-numeric %s", dropped, strings.Join(cpuStageColumns, "/"))
	}
	if dropped := len(c.CPU) - len(c.Process); dropped > 0 {
		monitor.Debugf("clean: dropped %d rows with non-numeric %s", dropped, strings.Join(processStageColumns, "/"))
	}
	return c
}

// coerceColumns converts the named columns of r; ok is false if any is missing.
func coerceColumns(r monitor.Record, names []string) ([]float64, bool) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := Coerce(r.Column(name))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Coerce converts a raw token to a finite float. Empty, non-numeric, NaN and
// infinite tokens all count as missing. Only plain decimal notation (with an
// optional exponent) is accepted: Go literal forms such as 1_000 or 0x10 are
// rejected.
func Coerce(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
