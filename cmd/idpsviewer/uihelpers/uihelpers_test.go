package uihelpers

import (
	"image"
	"math"
	"testing"
)

func TestComputeFigureDimensions(t *testing.T) {
	cases := []struct {
		in    int
		wantW int
	}{
		{100, 900},
		{899, 900},
		{900, 900},
		{1600, 1600},
		{4000, 4000},
	}
	for _, c := range cases {
		w, h := ComputeFigureDimensions(c.in)
		if w != c.wantW {
			t.Fatalf("input %d => width %d want %d", c.in, w, c.wantW)
		}
		if h < 420 || h > 760 {
			t.Fatalf("height clamp violated for input %d => h=%d", c.in, h)
		}
	}
	if _, h := ComputeFigureDimensions(DefaultFigureWidth); h != DefaultFigureHeight {
		t.Fatalf("default width should map to default height, got %d", h)
	}
}

func TestComputeFigureLayout(t *testing.T) {
	for _, size := range [][2]int{{900, 420}, {1400, 600}, {3000, 760}} {
		w, h := size[0], size[1]
		l := ComputeFigureLayout(w, h)
		bounds := image.Rect(0, 0, w, h)
		for name, r := range map[string]image.Rectangle{"summary": l.Summary, "left": l.LeftPie, "right": l.RightPie} {
			if r.Empty() || !r.In(bounds) {
				t.Fatalf("%dx%d: %s rect %v not inside %v", w, h, name, r, bounds)
			}
		}
		if l.Summary.Overlaps(l.LeftPie) || l.LeftPie.Overlaps(l.RightPie) || l.Summary.Overlaps(l.RightPie) {
			t.Fatalf("%dx%d: regions overlap %+v", w, h, l)
		}
		if l.LeftPie.Dx() != l.RightPie.Dx() {
			t.Fatalf("%dx%d: pies differ in width %d vs %d", w, h, l.LeftPie.Dx(), l.RightPie.Dx())
		}
		if l.Summary.Dx() > 300 {
			t.Fatalf("%dx%d: summary panel too wide %d", w, h, l.Summary.Dx())
		}
	}
}

func TestLegendOrigin(t *testing.T) {
	r := image.Rect(300, 0, 850, 600)
	p := LegendOrigin(r, 150, 60, 40)
	if p.X != 850-150-8 || p.Y != 40 {
		t.Fatalf("legend origin got %v", p)
	}
	// legend taller than the region clamps to the top
	p = LegendOrigin(image.Rect(0, 0, 100, 50), 200, 80, 10)
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("clamped origin got %v", p)
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		12.345: "12.3%",
		100:    "100.0%",
		0:      "0.0%",
		0.05:   "0.05%",
	}
	for in, want := range cases {
		if got := FormatPercent(in); got != want {
			t.Fatalf("FormatPercent(%v) => %q want %q", in, got, want)
		}
	}
	if got := FormatPercent(math.NaN()); got != "-" {
		t.Fatalf("NaN => %q", got)
	}
}
