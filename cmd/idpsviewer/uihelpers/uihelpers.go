package uihelpers

import (
	"image"
	"math"
	"strconv"
)

// Default figure size used when no window is available (headless renders).
const (
	DefaultFigureWidth  = 1400
	DefaultFigureHeight = 600
)

// ComputeFigureDimensions applies the width/height clamp rules for the
// two-pie figure. Input: desired raw width (e.g., canvas width).
func ComputeFigureDimensions(rawW int) (int, int) {
	w := rawW
	if w < 900 {
		w = 900
	}
	h := w * 3 / 7
	if h < 420 {
		h = 420
	}
	if h > 760 {
		h = 760
	}
	return w, h
}

// FigureLayout positions the summary panel and the two pies inside a figure.
type FigureLayout struct {
	Summary  image.Rectangle
	LeftPie  image.Rectangle
	RightPie image.Rectangle
}

// ComputeFigureLayout reserves a left column for the summary text (a quarter
// of the width, at most 300px) and splits the rest evenly between the pies.
func ComputeFigureLayout(w, h int) FigureLayout {
	panel := w / 4
	if panel > 300 {
		panel = 300
	}
	pieW := (w - panel) / 2
	return FigureLayout{
		Summary:  image.Rect(0, 0, panel, h),
		LeftPie:  image.Rect(panel, 0, panel+pieW, h),
		RightPie: image.Rect(panel+pieW, 0, panel+2*pieW, h),
	}
}

// LegendOrigin returns the top-left point for a legend box of size lw x lh
// placed in the upper right of r, below a title band of titleH pixels.
func LegendOrigin(r image.Rectangle, lw, lh, titleH int) image.Point {
	x := r.Max.X - lw - 8
	if x < r.Min.X {
		x = r.Min.X
	}
	y := r.Min.Y + titleH
	if y+lh > r.Max.Y {
		y = r.Max.Y - lh
	}
	if y < r.Min.Y {
		y = r.Min.Y
	}
	return image.Pt(x, y)
}

// FormatPercent formats a pie label the way the charts show it (one decimal).
// Tiny shares keep two decimals so a floored slice does not read as 0.0%.
func FormatPercent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "-"
	}
	if p > 0 && p < 0.1 {
		return strconv.FormatFloat(p, 'f', 2, 64) + "%"
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
