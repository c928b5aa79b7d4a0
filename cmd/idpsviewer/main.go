package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/lv13614133158/df-code/cmd/idpsviewer/uihelpers"
	"github.com/lv13614133158/df-code/src/analysis"
	"github.com/lv13614133158/df-code/src/config"
	"github.com/lv13614133158/df-code/src/monitor"
	"github.com/lv13614133158/df-code/src/report"
)

type uiState struct {
	app      fyne.App
	window   fyne.Window
	filePath string
	unit     report.Unit
	agg      analysis.Aggregate

	// widgets
	figure     *canvas.Image
	fileLabel  *widget.Label
	statsLabel *widget.Label
	unitSelect *widget.Select
}

func main() {
	configPath := flag.String("config", "", "Optional TOML config file")
	fileFlag := flag.String("file", monitor.DefaultInfoFile, "Path to monitor_info.csv")
	unitFlag := flag.String("unit", "KB", "Memory unit for the summary (KB|MB)")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	shotsDir := flag.String("screenshots", "", "Render the figure into this directory as PNG and exit (no window)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	set := config.SetFlags(flag.CommandLine)
	if set["file"] {
		cfg.File = *fileFlag
	}
	if set["unit"] {
		cfg.Unit = *unitFlag
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["screenshots"] {
		cfg.ScreenshotDir = *shotsDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	monitor.SetLogLevel(cfg.LogLevel)

	if cfg.ScreenshotDir != "" {
		out, err := RunScreenshotsMode(cfg.File, cfg.ScreenshotDir, cfg.MemoryUnit())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[viewer] wrote %s\n", out)
		return
	}

	a := app.NewWithID("com.idps.viewer")
	fromConfig := *configPath != ""

	// A file that cannot be analyzed ends the run before any window opens.
	path, agg, err := startFile(a.Preferences(), cfg.File, set["file"] || fromConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	w := a.NewWindow("IDPS Resource Usage")
	w.Resize(fyne.NewSize(uihelpers.DefaultFigureWidth, uihelpers.DefaultFigureHeight+60))

	state := &uiState{
		app:      a,
		window:   w,
		filePath: path,
		unit:     cfg.MemoryUnit(),
		agg:      agg,
	}
	loadPrefs(state, set, fromConfig)

	state.fileLabel = widget.NewLabel(truncatePath(state.filePath, 60))
	state.statsLabel = widget.NewLabel("")
	state.unitSelect = widget.NewSelect([]string{string(report.UnitKB), string(report.UnitMB)}, nil)
	state.unitSelect.Selected = string(state.unit)

	state.figure = canvas.NewImageFromImage(blank(100, 60))
	state.figure.FillMode = canvas.ImageFillContain
	state.figure.SetMinSize(fyne.NewSize(900, 420))

	top := container.NewHBox(
		widget.NewButton("Open…", func() { openFileDialog(state) }),
		widget.NewButton("Reload", func() { loadAll(state) }),
		widget.NewLabel("Memory Unit:"), state.unitSelect,
		widget.NewLabel("File:"), state.fileLabel,
		state.statsLabel,
	)
	w.SetContent(container.NewBorder(top, nil, nil, nil, state.figure))

	// wire after the canvas exists
	state.unitSelect.OnChanged = func(v string) {
		u, err := report.ParseUnit(v)
		if err != nil {
			return
		}
		state.unit = u
		savePrefs(state)
		redrawFigure(state)
	}
	buildMenus(state)
	updateStats(state)
	redrawFigure(state)

	// Redraw on window resize so the figure scales with width
	if w.Canvas() != nil {
		prevW := int(w.Canvas().Size().Width)
		done := make(chan struct{})
		w.SetOnClosed(func() { close(done) })
		go func() {
			t := time.NewTicker(300 * time.Millisecond)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					c := w.Canvas()
					if c == nil {
						continue
					}
					curW := int(c.Size().Width)
					if curW != prevW {
						prevW = curW
						fyne.Do(func() { redrawFigure(state) })
					}
				}
			}
		}()
	}

	w.ShowAndRun()
}

// menus and shortcuts
func buildMenus(state *uiState) {
	if state == nil || state.window == nil {
		return
	}
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state) }),
		fyne.NewMenuItem("Reload", func() { loadAll(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Figure…", func() { exportFigurePNG(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu))

	canv := state.window.Canvas()
	if canv != nil {
		for _, mod := range []fyne.KeyModifier{fyne.KeyModifierControl, fyne.KeyModifierSuper} {
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: mod}, func(fyne.Shortcut) { openFileDialog(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: mod}, func(fyne.Shortcut) { loadAll(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: mod}, func(fyne.Shortcut) { state.window.Close() })
		}
	}
}

func openFileDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		loadFile(state, rc.URI().Path())
	}, state.window)
	d.Show()
}

// loadAll re-analyzes the current file.
func loadAll(state *uiState) { loadFile(state, state.filePath) }

// loadFile analyzes path and makes it the current file. On failure the
// previous file, label and figure stay.
func loadFile(state *uiState, path string) {
	agg, err := analysis.AnalyzeFile(path)
	if err != nil {
		monitor.Errorf("load %s: %v", path, err)
		if state.window != nil {
			dialog.ShowError(err, state.window)
		}
		return
	}
	state.filePath = path
	state.agg = agg
	if state.fileLabel != nil {
		state.fileLabel.SetText(truncatePath(path, 60))
	}
	savePrefs(state)
	updateStats(state)
	redrawFigure(state)
}

// startFile picks the file the window opens with. Unless a flag or a config
// file chose one, the remembered last file is tried first and the default is
// the fallback. The error is that of the default file.
func startFile(p fyne.Preferences, defaultFile string, chosen bool) (string, analysis.Aggregate, error) {
	if !chosen && p != nil {
		if last := p.String("lastFile"); last != "" && last != defaultFile {
			agg, err := analysis.AnalyzeFile(last)
			if err == nil {
				monitor.Infof("reopening last file %s", last)
				return last, agg, nil
			}
			monitor.Debugf("remembered file %s skipped: %v", last, err)
		}
	}
	agg, err := analysis.AnalyzeFile(defaultFile)
	if err != nil {
		return defaultFile, analysis.Aggregate{}, err
	}
	return defaultFile, agg, nil
}

// loadPrefs restores the remembered unit unless a flag or a config file chose it.
func loadPrefs(state *uiState, set map[string]bool, fromConfig bool) {
	if state == nil || state.app == nil || fromConfig || set["unit"] {
		return
	}
	p := state.app.Preferences()
	if u, err := report.ParseUnit(p.StringWithFallback("unit", string(state.unit))); err == nil {
		state.unit = u
	}
}

func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	p := state.app.Preferences()
	p.SetString("unit", string(state.unit))
	p.SetString("lastFile", state.filePath)
}

func updateStats(state *uiState) {
	if state.statsLabel == nil {
		return
	}
	a := state.agg
	txt := fmt.Sprintf("Rows: %d", a.CPURows)
	if a.SkippedLines > 0 {
		txt += fmt.Sprintf(" (skipped %d malformed)", a.SkippedLines)
	}
	state.statsLabel.SetText(txt)
}

func redrawFigure(state *uiState) {
	w, h := figureSize(state)
	img, err := renderFigure(state.agg, state.unit, w, h)
	if err != nil {
		monitor.Errorf("render figure: %v; showing blank fallback", err)
		img = blank(w, h)
	}
	if state.figure != nil {
		state.figure.Image = img
		state.figure.SetMinSize(fyne.NewSize(float32(w)*0.6, float32(h)*0.6))
		state.figure.Refresh()
	}
}

// figureSize follows the window width; headless callers get the default size.
func figureSize(state *uiState) (int, int) {
	if state == nil || state.window == nil || state.window.Canvas() == nil {
		return uihelpers.ComputeFigureDimensions(uihelpers.DefaultFigureWidth)
	}
	sz := state.window.Canvas().Size()
	if sz.Width <= 0 {
		return uihelpers.ComputeFigureDimensions(uihelpers.DefaultFigureWidth)
	}
	return uihelpers.ComputeFigureDimensions(int(sz.Width*0.98) - 12)
}

func exportFigurePNG(state *uiState) {
	if state == nil || state.window == nil || state.figure == nil || state.figure.Image == nil {
		return
	}
	img := state.figure.Image
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := encodePNG(wc, img); err != nil {
			dialog.ShowError(err, state.window)
		}
	}, state.window)
	fs.SetFileName(ScreenshotName)
	fs.Show()
}

func encodePNG(wc fyne.URIWriteCloser, img image.Image) error {
	if err := png.Encode(wc, img); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

func truncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
