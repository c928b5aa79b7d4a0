package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lv13614133158/df-code/cmd/idpsviewer/uihelpers"
	"github.com/lv13614133158/df-code/src/analysis"
	"github.com/lv13614133158/df-code/src/report"
)

const (
	lineHeight  = 16
	boxPad      = 8
	swatchSize  = 10
	titleBandPx = 40
)

var (
	textColor   = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	borderColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	boxFill     = color.RGBA{R: 255, G: 255, B: 255, A: 230}
)

// renderFigure draws the whole window content: summary panel on the left,
// CPU pie and memory pie side by side.
func renderFigure(agg analysis.Aggregate, unit report.Unit, w, h int) (image.Image, error) {
	lay := uihelpers.ComputeFigureLayout(w, h)
	fig := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(fig, fig.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	pies := []struct {
		dist report.Distribution
		rect image.Rectangle
	}{
		{report.CPUDistribution(agg), lay.LeftPie},
		{report.MemoryDistribution(agg), lay.RightPie},
	}
	for _, p := range pies {
		img, err := renderPie(p.dist, p.rect.Dx(), p.rect.Dy())
		if err != nil {
			return nil, err
		}
		draw.Draw(fig, p.rect, img, img.Bounds().Min, draw.Over)
		drawLegend(fig, p.rect, p.dist)
	}

	summary := strings.Split(strings.TrimRight(report.SummaryText(agg, unit), "\n"), "\n")
	drawTextBox(fig, lay.Summary, summary)
	return fig, nil
}

// renderPie renders one distribution with go-chart and decodes the PNG.
// Slice labels carry the percentage of the total.
func renderPie(d report.Distribution, w, h int) (image.Image, error) {
	pct := d.Percentages()
	values := make([]chart.Value, 0, len(d.Slices))
	for i, s := range d.Slices {
		values = append(values, chart.Value{
			Value: s.Value,
			Label: uihelpers.FormatPercent(pct[i]),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(s.Color),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontSize:    11,
				FontColor:   drawing.ColorBlack,
			},
		})
	}
	pie := chart.PieChart{
		Title:  d.Title,
		Width:  w,
		Height: h,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: titleBandPx, Left: 20, Right: 20, Bottom: 20},
		},
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", d.Title, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", d.Title, err)
	}
	return img, nil
}

// drawLegend draws the legend title and one swatch line per slice in the
// upper right of the pie region.
func drawLegend(dst *image.RGBA, region image.Rectangle, d report.Distribution) {
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}
	textW := dr.MeasureString(d.LegendTitle).Ceil()
	for _, s := range d.Slices {
		if lw := swatchSize + 6 + dr.MeasureString(s.Label).Ceil(); lw > textW {
			textW = lw
		}
	}
	boxW := textW + 2*boxPad
	boxH := (len(d.Slices)+1)*lineHeight + 2*boxPad
	origin := uihelpers.LegendOrigin(region, boxW, boxH, titleBandPx)
	box := image.Rect(origin.X, origin.Y, origin.X+boxW, origin.Y+boxH)
	fillBox(dst, box)

	x := box.Min.X + boxPad
	y := box.Min.Y + boxPad
	drawString(dr, d.LegendTitle, x, y)
	for i, s := range d.Slices {
		ly := y + (i+1)*lineHeight
		sw := image.Rect(x, ly+2, x+swatchSize, ly+2+swatchSize)
		draw.Draw(dst, sw, image.NewUniform(drawing.ColorFromHex(s.Color)), image.Point{}, draw.Src)
		drawString(dr, s.Label, x+swatchSize+6, ly)
	}
}

// drawTextBox draws lines in a bordered box anchored to the bottom-left of
// region and returns the box. Lines wider than the region are wrapped. A box
// taller than the region is anchored to its top instead.
func drawTextBox(dst *image.RGBA, region image.Rectangle, lines []string) image.Rectangle {
	if len(lines) == 0 {
		return image.Rectangle{}
	}
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}
	lines = wrapLines(dr, lines, region.Dx()-3*boxPad)
	textW := 0
	for _, l := range lines {
		if w := dr.MeasureString(l).Ceil(); w > textW {
			textW = w
		}
	}
	boxW := textW + 2*boxPad
	boxH := len(lines)*lineHeight + 2*boxPad
	x0 := region.Min.X + boxPad
	y0 := region.Max.Y - boxPad - boxH
	if y0 < region.Min.Y {
		y0 = region.Min.Y
	}
	box := image.Rect(x0, y0, x0+boxW, y0+boxH)
	fillBox(dst, box)
	for i, l := range lines {
		drawString(dr, l, box.Min.X+boxPad, box.Min.Y+boxPad+i*lineHeight)
	}
	return box
}

// wrapLines breaks lines wider than maxW pixels at spaces, or mid-word when a
// single word does not fit.
func wrapLines(dr *font.Drawer, lines []string, maxW int) []string {
	if maxW <= 0 {
		return lines
	}
	fits := func(s string) bool { return dr.MeasureString(s).Ceil() <= maxW }
	var out []string
	for _, l := range lines {
		for !fits(l) {
			cut := len(l)
			for cut > 1 && !fits(l[:cut]) {
				cut--
			}
			if l[cut] == ' ' {
				out = append(out, l[:cut])
				l = strings.TrimLeft(l[cut:], " ")
				continue
			}
			if sp := strings.LastIndexByte(l[:cut], ' '); sp > 0 {
				out = append(out, l[:sp])
				l = strings.TrimLeft(l[sp:], " ")
				continue
			}
			out = append(out, l[:cut])
			l = l[cut:]
		}
		out = append(out, l)
	}
	return out
}

// drawString draws s with its line box starting at top y.
func drawString(dr *font.Drawer, s string, x, top int) {
	ascent := dr.Face.Metrics().Ascent.Ceil()
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(top + ascent)}
	dr.DrawString(s)
}

// fillBox paints a translucent white box with a 1px gray border.
func fillBox(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(boxFill), image.Point{}, draw.Over)
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, borderColor)
		dst.Set(x, r.Max.Y-1, borderColor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, borderColor)
		dst.Set(r.Max.X-1, y, borderColor)
	}
}

// blank is shown while nothing could be rendered.
func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 240, G: 240, B: 240, A: 255}), image.Point{}, draw.Src)
	return img
}
