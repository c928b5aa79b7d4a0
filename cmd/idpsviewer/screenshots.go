package main

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lv13614133158/df-code/cmd/idpsviewer/uihelpers"
	"github.com/lv13614133158/df-code/src/analysis"
	"github.com/lv13614133158/df-code/src/monitor"
	"github.com/lv13614133158/df-code/src/report"
)

// ScreenshotName is the file written by RunScreenshotsMode.
const ScreenshotName = "resource_usage.png"

// screenshotWidthOverride forces the headless figure width when > 0 (tests).
var screenshotWidthOverride int

// RunScreenshotsMode renders the figure for filePath and writes it as a PNG
// under outDir. It runs headlessly without creating a UI window.
func RunScreenshotsMode(filePath, outDir string, unit report.Unit) (string, error) {
	if filePath == "" {
		filePath = monitor.DefaultInfoFile
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}
	agg, err := analysis.AnalyzeFile(filePath)
	if err != nil {
		return "", err
	}
	w, h := uihelpers.ComputeFigureDimensions(uihelpers.DefaultFigureWidth)
	if screenshotWidthOverride > 0 {
		w, h = uihelpers.ComputeFigureDimensions(screenshotWidthOverride)
	}
	img, err := renderFigure(agg, unit, w, h)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("png encode %s: %w", ScreenshotName, err)
	}
	outPath := filepath.Join(outDir, ScreenshotName)
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}
