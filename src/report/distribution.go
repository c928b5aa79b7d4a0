// Package report turns an analysis.Aggregate into what the viewer and the
// reader draw: two three-slice distributions and a summary text block.
package report

import (
	"github.com/lv13614133158/df-code/src/analysis"
)

// SliceFloor is the smallest value a slice is drawn with. Zero or negative
// shares are replaced by it so a pie never gets an empty or inverted wedge.
// It is a display policy; the aggregate itself is never adjusted.
const SliceFloor = 0.1

// Slice is one pie wedge. Color is a 6 digit hex RGB without '#'.
type Slice struct {
	Label string
	Value float64
	Color string
}

// Distribution is one pie chart's data.
type Distribution struct {
	Title       string
	LegendTitle string
	Slices      []Slice
}

// CPUDistribution partitions CPU time into IDPS / other / idle.
// The "other" wedge is only computed when the IDPS share is known and smaller
// than total usage; otherwise it is floored.
func CPUDistribution(a analysis.Aggregate) Distribution {
	busy := a.AvgUsr + a.AvgSys
	other := SliceFloor
	if busy > a.AvgIDPSCPU && a.AvgIDPSCPU > 0 {
		other = busy - a.AvgIDPSCPU
	}
	return Distribution{
		Title:       "CPU usage and IDPS share",
		LegendTitle: "CPU distribution",
		Slices: []Slice{
			{Label: "IDPS CPU", Value: floorSlice(a.AvgIDPSCPU), Color: "ff9999"},
			{Label: "Other CPU", Value: floorSlice(other), Color: "ffcc99"},
			{Label: "CPU idle", Value: floorSlice(a.AvgIdle), Color: "66b3ff"},
		},
	}
}

// MemoryDistribution partitions memory into IDPS / other used / free.
func MemoryDistribution(a analysis.Aggregate) Distribution {
	other := SliceFloor
	if a.AvgUsedMem > a.AvgIDPSMem && a.AvgIDPSMem > 0 {
		other = a.AvgUsedMem - a.AvgIDPSMem
	}
	return Distribution{
		Title:       "Memory usage and IDPS share",
		LegendTitle: "Memory distribution",
		Slices: []Slice{
			{Label: "IDPS memory", Value: floorSlice(a.AvgIDPSMem), Color: "99ff99"},
			{Label: "Other memory", Value: floorSlice(other), Color: "cce5ff"},
			{Label: "Free memory", Value: floorSlice(a.AvgFreeMem), Color: "ffcc99"},
		},
	}
}

// floorSlice also catches NaN, which fails every comparison.
func floorSlice(v float64) float64 {
	if !(v >= SliceFloor) {
		return SliceFloor
	}
	return v
}

// Total is the sum of slice values.
func (d Distribution) Total() float64 {
	var t float64
	for _, s := range d.Slices {
		t += s.Value
	}
	return t
}

// Values returns the slice values in order.
func (d Distribution) Values() []float64 {
	out := make([]float64, len(d.Slices))
	for i, s := range d.Slices {
		out[i] = s.Value
	}
	return out
}

// Percentages returns each slice's share of the total, 0..100.
func (d Distribution) Percentages() []float64 {
	out := make([]float64, len(d.Slices))
	total := d.Total()
	if total <= 0 {
		return out
	}
	for i, s := range d.Slices {
		out[i] = s.Value / total * 100
	}
	return out
}
