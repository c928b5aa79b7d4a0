package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lv13614133158/df-code/src/analysis"
	"github.com/lv13614133158/df-code/src/config"
	"github.com/lv13614133158/df-code/src/monitor"
	"github.com/lv13614133158/df-code/src/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func main() {
	var file, unit, logLevel, configPath string
	flag.StringVar(&configPath, "config", "", "Optional TOML config file")
	flag.StringVar(&file, "file", monitor.DefaultInfoFile, "Path to monitor_info.csv")
	flag.StringVar(&unit, "unit", "KB", "Memory unit (KB|MB)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	set := config.SetFlags(flag.CommandLine)
	if set["file"] {
		cfg.File = file
	}
	if set["unit"] {
		cfg.Unit = unit
	}
	if set["log-level"] {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	monitor.SetLogLevel(cfg.LogLevel)

	agg, err := analysis.AnalyzeFile(cfg.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(renderView(cfg.File, agg, cfg.MemoryUnit()))
}

// renderView lays the summary card next to one card per distribution.
func renderView(file string, agg analysis.Aggregate, unit report.Unit) string {
	header := titleStyle.Render("IDPS Resource Usage") + "  " + subtleStyle.Render(file)
	summary := card("Summary", strings.TrimRight(report.SummaryText(agg, unit), "\n"))
	cpu := distributionCard(report.CPUDistribution(agg))
	mem := distributionCard(report.MemoryDistribution(agg))
	pies := lipgloss.JoinVertical(lipgloss.Left, cpu, mem)
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, summary, pies))
}

func distributionCard(d report.Distribution) string {
	pct := d.Percentages()
	lines := make([]string, 0, len(d.Slices))
	for i, s := range d.Slices {
		lines = append(lines, fmt.Sprintf("%-13s %s", s.Label, gaugeBar(pct[i], 24)))
	}
	return card(d.LegendTitle, strings.Join(lines, "\n"))
}

func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}
