package analysis

import (
	"errors"

	"github.com/lv13614133158/df-code/src/monitor"
)

// ErrNoValidRows means cleaning left nothing to average.
var ErrNoValidRows = errors.New("no rows with numeric idle_cpu")

// Aggregate is the set of per-column means for one info file.
// CPU means come from the stage 1 rows; memory and IDPS means from stage 2.
type Aggregate struct {
	AvgUsr  float64
	AvgSys  float64
	AvgIdle float64

	// TotalCPUUsage is AvgUsr + AvgSys.
	TotalCPUUsage float64

	AvgUsedMem float64
	AvgFreeMem float64
	AvgBuffMem float64
	AvgIDPSCPU float64
	AvgIDPSMem float64

	// ProcessAbsent is set when no row had numeric idps_cpu and idps_mem;
	// the IDPS means are then 0 and memory means use the stage 1 rows.
	ProcessAbsent bool

	// Row accounting
	LoadedRows   int
	SkippedLines int
	Lenient      bool
	CPURows      int
	ProcessRows  int
	FirstTime    string
	LastTime     string
}

// ComputeAggregate averages the cleaned dataset. Tokens in the columns the
// cleaner does not filter (usr/sys/used/free/buff) that fail coercion are
// skipped rather than counted as zero.
func ComputeAggregate(c Cleaned) (Aggregate, error) {
	if len(c.CPU) == 0 {
		return Aggregate{}, ErrNoValidRows
	}
	var a Aggregate
	var usr, sys, idle meanAcc
	for _, row := range c.CPU {
		usr.addRaw(row.Column("usr_cpu"))
		sys.addRaw(row.Column("sys_cpu"))
		idle.add(row.Idle)
	}
	a.AvgUsr = usr.valueOrZero("usr_cpu")
	a.AvgSys = sys.valueOrZero("sys_cpu")
	a.AvgIdle = idle.valueOrZero("idle_cpu")
	a.TotalCPUUsage = a.AvgUsr + a.AvgSys

	memRows := c.Process
	if len(c.Process) == 0 {
		a.ProcessAbsent = true
		memRows = c.CPU
	} else {
		var icpu, imem meanAcc
		for _, row := range c.Process {
			icpu.add(row.IDPSCPU)
			imem.add(row.IDPSMem)
		}
		a.AvgIDPSCPU = icpu.valueOrZero("idps_cpu")
		a.AvgIDPSMem = imem.valueOrZero("idps_mem")
	}
	var used, free, buff meanAcc
	for _, row := range memRows {
		used.addRaw(row.Column("used_mem"))
		free.addRaw(row.Column("free_mem"))
		buff.addRaw(row.Column("buff_mem"))
	}
	a.AvgUsedMem = used.valueOrZero("used_mem")
	a.AvgFreeMem = free.valueOrZero("free_mem")
	a.AvgBuffMem = buff.valueOrZero("buff_mem")

	a.CPURows = len(c.CPU)
	a.ProcessRows = len(c.Process)
	a.FirstTime = c.CPU[0].Time
	a.LastTime = c.CPU[len(c.CPU)-1].Time
	return a, nil
}

// meanAcc is a running mean that also tracks the observed range. The
// incremental update keeps repeated identical values exact, and value clamps
// to [min, max] so rounding never pushes the mean outside the data.
type meanAcc struct {
	n            int
	mean, lo, hi float64
}

func (m *meanAcc) add(v float64) {
	m.n++
	if m.n == 1 {
		m.mean, m.lo, m.hi = v, v, v
		return
	}
	m.mean += (v - m.mean) / float64(m.n)
	if v < m.lo {
		m.lo = v
	}
	if v > m.hi {
		m.hi = v
	}
}

func (m *meanAcc) addRaw(raw string) {
	if v, ok := Coerce(raw); ok {
		m.add(v)
	}
}

func (m *meanAcc) value() (float64, bool) {
	if m.n == 0 {
		return 0, false
	}
	v := m.mean
	if v < m.lo {
		v = m.lo
	}
	if v > m.hi {
		v = m.hi
	}
	return v, true
}

func (m *meanAcc) valueOrZero(column string) float64 {
	v, ok := m.value()
	if !ok {
		monitor.Warnf("column %s has no numeric values; using 0", column)
	}
	return v
}
