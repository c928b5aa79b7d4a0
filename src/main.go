// IDPS monitor main entrypoint.
//
// Two modes:
//  1. Collection mode (default): sample host CPU/memory and the monitored IDPS
//     process every --interval and append rows to monitor_info.csv.
//  2. Analyze-only mode (--analyze-only): load the existing file, clean it,
//     and print the averaged usage as one summary line plus the text block.
//
// Design notes:
//   - The info file starts with a banner line and has no header row; the
//     analyzers skip the first line unread.
//   - Rows written while the process is not running carry empty process
//     columns and are excluded from process statistics only.
//   - Use cmd/idpsviewer for the pie charts and cmd/idpsreader for a styled
//     terminal summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lv13614133158/df-code/src/analysis"
	"github.com/lv13614133158/df-code/src/config"
	"github.com/lv13614133158/df-code/src/monitor"
	"github.com/lv13614133158/df-code/src/report"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML config file")
	outFile := flag.String("out", monitor.DefaultInfoFile, "Info CSV file to append samples to (and to analyze)")
	processName := flag.String("process", "idps", "Name of the process to track")
	interval := flag.Duration("interval", time.Second, "Sampling interval")
	samples := flag.Int("samples", 0, "Stop after this many samples (0 = until interrupted)")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	unit := flag.String("unit", "KB", "Memory unit for the analyze-only summary (KB|MB)")
	analyzeOnly := flag.Bool("analyze-only", false, "Analyze the existing info file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	set := config.SetFlags(flag.CommandLine)
	if set["out"] {
		cfg.File = *outFile
	}
	if set["process"] {
		cfg.Collector.Process = *processName
	}
	if set["interval"] {
		cfg.Collector.Interval = *interval
	}
	if set["samples"] {
		cfg.Collector.Samples = *samples
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["unit"] {
		cfg.Unit = *unit
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	monitor.SetLogLevel(cfg.LogLevel)

	if *analyzeOnly {
		if err := analyzeOnlyMode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := monitor.OpenInfoFile(cfg.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	monitor.Infof("[init] sampling every %s into %s (process=%q samples=%d)", cfg.Collector.Interval, cfg.File, cfg.Collector.Process, cfg.Collector.Samples)
	c := &monitor.Collector{
		Source:   monitor.NewSystemSource(cfg.Collector.Process),
		Interval: cfg.Collector.Interval,
		Samples:  cfg.Collector.Samples,
	}
	n, runErr := c.Run(ctx, w)
	if err := w.Close(); err != nil && runErr == nil {
		runErr = err
	}
	monitor.Infof("[done] wrote %d samples to %s", n, cfg.File)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func analyzeOnlyMode(cfg config.Config) error {
	agg, err := analysis.AnalyzeFile(cfg.File)
	if err != nil {
		return err
	}
	unit := cfg.MemoryUnit()
	fmt.Printf("[summary] rows=%d cpu_rows=%d process_rows=%d skipped=%d usr=%.1f%% sys=%.1f%% idle=%.1f%% total=%.1f%% used=%s free=%s buff=%s idps_cpu=%.1f%% idps_mem=%s\n",
		agg.LoadedRows, agg.CPURows, agg.ProcessRows, agg.SkippedLines,
		agg.AvgUsr, agg.AvgSys, agg.AvgIdle, agg.TotalCPUUsage,
		unit.Format(agg.AvgUsedMem), unit.Format(agg.AvgFreeMem), unit.Format(agg.AvgBuffMem),
		agg.AvgIDPSCPU, unit.Format(agg.AvgIDPSMem))
	fmt.Print(report.SummaryText(agg, unit))
	return nil
}
