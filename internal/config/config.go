// Package config holds the run configuration: filesystem paths, browser and
// fallback tool settings, and guide sequences.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvChrome  = "INDIGORUN_CHROME"
	EnvPython  = "INDIGORUN_PYTHON"
	EnvICEPath = "INDIGORUN_ICE_PATH"
)

// DefaultServiceURL is the INDIGO web application.
const DefaultServiceURL = "https://www.gear-genomics.com/indigo/"

// Config is the complete run configuration.
type Config struct {
	InputDir       string `json:"input_dir" yaml:"input_dir"`
	Extension      string `json:"extension,omitempty" yaml:"extension,omitempty"`
	Reference      string `json:"reference" yaml:"reference"`
	OutputDir      string `json:"output_dir" yaml:"output_dir"`
	ReportDir      string `json:"report_dir,omitempty" yaml:"report_dir,omitempty"`           // default: parent of OutputDir
	FallbackOutput string `json:"fallback_output,omitempty" yaml:"fallback_output,omitempty"` // default: <parent>/ICE_RESULTS

	Guides         []string `json:"guides" yaml:"guides"`
	FallbackTarget string   `json:"fallback_target" yaml:"fallback_target"`

	Browser  Browser  `json:"browser" yaml:"browser"`
	Indigo   Indigo   `json:"indigo" yaml:"indigo"`
	Fallback Fallback `json:"fallback" yaml:"fallback"`

	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Browser configures the Chrome session.
type Browser struct {
	ChromePath    string   `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	Headless      bool     `json:"headless" yaml:"headless"`
	NoSandbox     bool     `json:"no_sandbox,omitempty" yaml:"no_sandbox,omitempty"`
	ActionTimeout Duration `json:"action_timeout,omitempty" yaml:"action_timeout,omitempty"`
}

// Indigo configures the primary web tool interaction.
type Indigo struct {
	URL             string   `json:"url,omitempty" yaml:"url,omitempty"`
	SettleDelay     Duration `json:"settle_delay,omitempty" yaml:"settle_delay,omitempty"`
	ElementTimeout  Duration `json:"element_timeout,omitempty" yaml:"element_timeout,omitempty"`
	ResultTimeout   Duration `json:"result_timeout,omitempty" yaml:"result_timeout,omitempty"`
	DownloadTimeout Duration `json:"download_timeout,omitempty" yaml:"download_timeout,omitempty"`
	PollInterval    Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	StaleRetries    int      `json:"stale_retries,omitempty" yaml:"stale_retries,omitempty"`
}

// Fallback configures the local ICE analysis.
type Fallback struct {
	Python     string   `json:"python,omitempty" yaml:"python,omitempty"`
	SourcePath string   `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Disabled   bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Extension: ".ab1",
		Browser: Browser{
			Headless:      true,
			ActionTimeout: Duration(30 * time.Second),
		},
		Indigo: Indigo{
			URL:             DefaultServiceURL,
			SettleDelay:     Duration(15 * time.Second),
			ElementTimeout:  Duration(30 * time.Second),
			ResultTimeout:   Duration(30 * time.Second),
			DownloadTimeout: Duration(30 * time.Second),
			PollInterval:    Duration(250 * time.Millisecond),
			StaleRetries:    2,
		},
		Fallback: Fallback{
			Python:  "python3",
			Timeout: Duration(5 * time.Minute),
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// ApplyEnv overrides tool locations from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvChrome); v != "" {
		c.Browser.ChromePath = v
	}
	if v := getenv(EnvPython); v != "" {
		c.Fallback.Python = v
	}
	if v := getenv(EnvICEPath); v != "" {
		c.Fallback.SourcePath = v
	}
}

// ResolvedReportDir is ReportDir or the parent of OutputDir.
func (c Config) ResolvedReportDir() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return filepath.Dir(filepath.Clean(c.OutputDir))
}

// ResolvedFallbackOutput is FallbackOutput or ICE_RESULTS next to OutputDir.
func (c Config) ResolvedFallbackOutput() string {
	if c.FallbackOutput != "" {
		return c.FallbackOutput
	}
	return filepath.Join(filepath.Dir(filepath.Clean(c.OutputDir)), "ICE_RESULTS")
}

// LogPath is the append-only run log inside OutputDir.
func (c Config) LogPath() string {
	return filepath.Join(c.OutputDir, "analysis_log.txt")
}

// Validate checks that required fields are set. Filesystem checks belong to
// the prereq package.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InputDir) == "" {
		errs = append(errs, errors.New("input_dir is required"))
	}
	if strings.TrimSpace(c.Reference) == "" {
		errs = append(errs, errors.New("reference is required"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.Indigo.StaleRetries < 0 {
		errs = append(errs, fmt.Errorf("stale_retries must be >= 0, got %d", c.Indigo.StaleRetries))
	}
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		errs = append(errs, fmt.Errorf("extension must start with '.', got %q", c.Extension))
	}
	return errors.Join(errs...)
}
