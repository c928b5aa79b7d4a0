// Package config holds the runtime options shared by the collector, reader
// and viewer. Values come from built-in defaults, then an optional TOML file,
// then any command line flag the user set explicitly.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lv13614133158/df-code/src/monitor"
	"github.com/lv13614133158/df-code/src/report"
)

// Config is the decoded configuration file.
//
//	file = "monitor_info.csv"
//	unit = "MB"
//	log_level = "debug"
//
//	[collector]
//	process = "idps"
//	interval = "2s"
//	samples = 300
type Config struct {
	File          string    `toml:"file"`
	Unit          string    `toml:"unit"`
	LogLevel      string    `toml:"log_level"`
	ScreenshotDir string    `toml:"screenshot_dir"`
	Collector     Collector `toml:"collector"`
}

// Collector configures the sampling loop that writes the info file.
type Collector struct {
	Process  string        `toml:"process"`
	Interval time.Duration `toml:"interval"`
	Samples  int           `toml:"samples"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		File:     monitor.DefaultInfoFile,
		Unit:     string(report.UnitKB),
		LogLevel: "info",
		Collector: Collector{
			Process:  "idps",
			Interval: time.Second,
		},
	}
}

// Load decodes path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		monitor.Warnf("config %s: unknown key %q ignored", path, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := report.ParseUnit(c.Unit); err != nil {
		return err
	}
	if _, ok := monitor.ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector interval must be positive, got %s", c.Collector.Interval)
	}
	if c.Collector.Samples < 0 {
		return fmt.Errorf("collector samples must be >= 0, got %d", c.Collector.Samples)
	}
	return nil
}

// MemoryUnit returns the validated unit.
func (c Config) MemoryUnit() report.Unit {
	u, err := report.ParseUnit(c.Unit)
	if err != nil {
		return report.UnitKB
	}
	return u
}

// SetFlags returns the names of flags the user set on the command line, so
// callers can let them win over file values.
func SetFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
