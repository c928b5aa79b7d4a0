package report

import (
	"fmt"
	"strings"

	"github.com/lv13614133158/df-code/src/analysis"
)

// Unit selects how memory columns (recorded in KB) are shown.
type Unit string

const (
	UnitKB Unit = "KB"
	UnitMB Unit = "MB"
)

// ParseUnit accepts kb|mb in any case. Empty means KB.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "KB":
		return UnitKB, nil
	case "MB":
		return UnitMB, nil
	}
	return "", fmt.Errorf("unknown memory unit %q (want KB or MB)", s)
}

// Scale converts a KB value into the unit.
func (u Unit) Scale(kb float64) float64 {
	if u == UnitMB {
		return kb / 1024
	}
	return kb
}

// Format renders a KB value in the unit, with its suffix.
func (u Unit) Format(kb float64) string {
	if u == UnitMB {
		return fmt.Sprintf("%.1f MB", u.Scale(kb))
	}
	return fmt.Sprintf("%.0f KB", kb)
}

// SummaryText is the statistics block shown next to the charts.
func SummaryText(a analysis.Aggregate, unit Unit) string {
	var b strings.Builder
	b.WriteString("CPU usage:\n")
	fmt.Fprintf(&b, "User CPU: %.1f%%\n", a.AvgUsr)
	fmt.Fprintf(&b, "System CPU: %.1f%%\n", a.AvgSys)
	fmt.Fprintf(&b, "CPU idle: %.1f%%\n", a.AvgIdle)
	fmt.Fprintf(&b, "Total CPU usage: %.1f%%\n", a.TotalCPUUsage)
	b.WriteString("\nMemory usage:\n")
	fmt.Fprintf(&b, "Used memory: %s\n", unit.Format(a.AvgUsedMem))
	fmt.Fprintf(&b, "Free memory: %s\n", unit.Format(a.AvgFreeMem))
	fmt.Fprintf(&b, "Buffer memory: %s\n", unit.Format(a.AvgBuffMem))
	b.WriteString("\nIDPS process:\n")
	if a.ProcessAbsent {
		b.WriteString("(no samples)\n")
	}
	fmt.Fprintf(&b, "IDPS CPU: %.1f%%\n", a.AvgIDPSCPU)
	fmt.Fprintf(&b, "IDPS memory: %s\n", unit.Format(a.AvgIDPSMem))
	if a.CPURows > 0 {
		fmt.Fprintf(&b, "\nSamples: %d", a.CPURows)
		if a.FirstTime != "" {
			fmt.Fprintf(&b, "\nFirst: %s\nLast: %s", a.FirstTime, a.LastTime)
		}
		if a.SkippedLines > 0 {
			fmt.Fprintf(&b, "\nSkipped malformed lines: %d", a.SkippedLines)
		}
		b.WriteString("\n")
	}
	return b.String()
}
