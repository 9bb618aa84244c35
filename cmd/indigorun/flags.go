package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"indigorun/internal/config"
)

// configFlags are the run settings accepted on the command line. Flags that
// were set override the config file and the environment.
type configFlags struct {
	configPath     string
	input          string
	extension      string
	reference      string
	output         string
	reportDir      string
	fallbackOutput string
	chrome         string
	headless       bool
	python         string
	icePath        string
	noICE          bool
	guides         []string
	target         string
	url            string
	settle         time.Duration
	logLevel       string
	logFormat      string
}

func (f *configFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Run config file (YAML or JSON)")
	fs.StringVar(&f.input, "input", "", "Folder with sample chromatograms")
	fs.StringVar(&f.extension, "ext", ".ab1", "Sample file extension (case-sensitive)")
	fs.StringVar(&f.reference, "reference", "", "Wild-type reference chromatogram")
	fs.StringVar(&f.output, "output", "", "INDIGO results folder (also holds analysis_log.txt)")
	fs.StringVar(&f.reportDir, "report-dir", "", "Report folder (default: parent of --output)")
	fs.StringVar(&f.fallbackOutput, "fallback-output", "", "ICE results folder (default: <parent of --output>/ICE_RESULTS)")
	fs.StringVar(&f.chrome, "chrome", "", "Chrome binary (default: $"+config.EnvChrome+" or PATH)")
	fs.BoolVar(&f.headless, "headless", true, "Run Chrome without a window")
	fs.StringVar(&f.python, "python", "", "Python interpreter for ICE (default: $"+config.EnvPython+" or python3)")
	fs.StringVar(&f.icePath, "ice-path", "", "ICE source folder added to PYTHONPATH (default: $"+config.EnvICEPath+")")
	fs.BoolVar(&f.noICE, "no-ice", false, "Disable the ICE fallback")
	fs.StringArrayVar(&f.guides, "guide", nil, "Guide sequence to highlight (repeatable)")
	fs.StringVar(&f.target, "target", "", "Target sequence for the ICE fallback")
	fs.StringVar(&f.url, "url", "", "INDIGO URL (default: "+config.DefaultServiceURL+")")
	fs.DurationVar(&f.settle, "settle", 0, "Maximum wait for INDIGO to finish after submit (default 15s)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Console log format: text or json")
}

// resolve builds the config: defaults, then file, then environment, then
// flags that were set explicitly.
func (f *configFlags) resolve(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadFromPath(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(getenv)

	fs := cmd.Flags()
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.InputDir = f.input })
	set("ext", func() { cfg.Extension = f.extension })
	set("reference", func() { cfg.Reference = f.reference })
	set("output", func() { cfg.OutputDir = f.output })
	set("report-dir", func() { cfg.ReportDir = f.reportDir })
	set("fallback-output", func() { cfg.FallbackOutput = f.fallbackOutput })
	set("chrome", func() { cfg.Browser.ChromePath = f.chrome })
	set("headless", func() { cfg.Browser.Headless = f.headless })
	set("python", func() { cfg.Fallback.Python = f.python })
	set("ice-path", func() { cfg.Fallback.SourcePath = f.icePath })
	set("no-ice", func() { cfg.Fallback.Disabled = f.noICE })
	set("guide", func() { cfg.Guides = f.guides })
	set("target", func() { cfg.FallbackTarget = f.target })
	set("url", func() { cfg.Indigo.URL = f.url })
	set("settle", func() { cfg.Indigo.SettleDelay = config.Duration(f.settle) })
	set("log-level", func() { cfg.LogLevel = f.logLevel })
	set("log-format", func() { cfg.LogFormat = f.logFormat })

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
