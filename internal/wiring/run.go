// Package wiring assembles one analysis run: prerequisites, run log,
// browser session, primary and fallback tools, supervisor and report.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"indigorun/internal/browser"
	"indigorun/internal/config"
	"indigorun/internal/format"
	"indigorun/internal/highlight"
	"indigorun/internal/ice"
	"indigorun/internal/indigo"
	"indigorun/internal/logging"
	"indigorun/internal/prereq"
	"indigorun/internal/report"
	"indigorun/internal/supervisor"
)

// Deps are the replaceable collaborators of a run. Zero values select the
// real implementations built from the config.
type Deps struct {
	Launcher browser.Launcher // nil: Chrome, and the browser binary is a prerequisite
	Runner   ice.Runner       // nil: Python ICE via ExecRunner
	Now      func() time.Time
	Console  io.Writer // log console sink; nil: stderr
	Out      io.Writer // summary and table; nil: stdout
}

// Result describes a completed run.
type Result struct {
	Summary     report.Summary
	Records     []report.Record
	Interrupted bool
}

// Run executes a full analysis. It returns an error only when the run could
// not start: invalid config, failed prerequisites or no browser. A run that
// processed samples, including one cut short by ctx, returns a Result.
func Run(ctx context.Context, cfg config.Config, deps Deps) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid config: %w", err)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, &prereq.Error{Problems: []string{fmt.Sprintf("cannot create output directory %s: %v", cfg.OutputDir, err)}}
	}
	prev := slog.Default()
	runlog, err := logging.OpenRunLog(cfg.LogPath(), deps.Console, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		slog.SetDefault(prev)
		_ = runlog.Close()
	}()
	log := logging.New("wiring")

	checked, err := prereq.Check(ctx, prereq.Options{
		InputDir:      cfg.InputDir,
		Extension:     cfg.Extension,
		Reference:     cfg.Reference,
		OutputDirs:    []string{cfg.ResolvedFallbackOutput(), cfg.ResolvedReportDir()},
		RequireChrome: deps.Launcher == nil,
		ChromePath:    cfg.Browser.ChromePath,
	})
	if err != nil {
		return Result{}, err
	}

	fallback := ice.New(ice.Options{
		Runner:    fallbackRunner(cfg, deps),
		OutputDir: cfg.ResolvedFallbackOutput(),
	})
	if cfg.Fallback.Disabled {
		log.Info("ICE fallback disabled by configuration")
	} else {
		fallback.Probe(ctx)
	}

	launcher, err := browserLauncher(cfg, deps, checked.Chrome)
	if err != nil {
		return Result{}, err
	}

	reporter := report.New(logging.New("report"), runlog.Counter)
	reporter.Begin(len(checked.Items), now())
	log.Info("run configuration",
		slog.String("run_id", reporter.RunID()),
		slog.String("guides", strings.Join(cfg.Guides, ",")),
		slog.Bool("ice_available", fallback.Available()),
		slog.String("log", runlog.Path))

	session := browser.NewSession(launcher)
	if err := session.Open(ctx); err != nil {
		log.Error("failed to initialize browser, cannot continue", slog.Any("err", err))
		return Result{}, err
	}

	sup := &supervisor.Supervisor{
		Session:   session,
		Primary:   indigo.New(indigoOptions(cfg)),
		Fallback:  fallback,
		Reference: cfg.Reference,
		Target:    cfg.FallbackTarget,
		Reporter:  reporter,
		Now:       now,
	}
	procErr := sup.Process(ctx, checked.Items)
	interrupted := errors.Is(procErr, context.Canceled) || errors.Is(procErr, context.DeadlineExceeded)
	if interrupted {
		log.Warn("analysis interrupted, writing partial report")
	}

	_ = session.Close()

	end := now()
	reportPath, werr := reporter.WriteTable(cfg.ResolvedReportDir(), end)
	if werr != nil {
		log.Error("error generating report", slog.Any("err", werr))
	} else {
		log.Info("report saved", slog.String("path", reportPath))
	}
	sum := reporter.Finish(end)
	sum.ReportPath = reportPath
	log.Info("analysis complete",
		slog.Int("total", sum.Attempted),
		slog.Int("succeeded", sum.Succeeded),
		slog.Int("failed", sum.Failed),
		slog.String("success_rate", format.FmtPercent(sum.Succeeded, sum.Attempted)),
		slog.String("elapsed", format.FmtElapsed(sum.Elapsed)))

	summary := report.FormatSummary(sum)
	if err := runlog.WriteBlock(summary); err != nil {
		log.Warn("could not append summary to run log", slog.Any("err", err))
	}

	records := reporter.Records()
	fmt.Fprintln(out, report.FormatTable(records))
	fmt.Fprint(out, summary)

	return Result{Summary: sum, Records: records, Interrupted: interrupted}, nil
}

func fallbackRunner(cfg config.Config, deps Deps) ice.Runner {
	if deps.Runner != nil {
		return deps.Runner
	}
	return ExecRunner(cfg)
}

// ExecRunner builds the Python ICE runner described by cfg.
func ExecRunner(cfg config.Config) *ice.ExecRunner {
	return &ice.ExecRunner{
		Python:     cfg.Fallback.Python,
		SourcePath: cfg.Fallback.SourcePath,
		Timeout:    cfg.Fallback.Timeout.D(),
	}
}

func browserLauncher(cfg config.Config, deps Deps, chrome string) (browser.Launcher, error) {
	if deps.Launcher != nil {
		return deps.Launcher, nil
	}
	dl, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve download dir: %w", err)
	}
	return browser.ChromeLauncher{Options: browser.Options{
		ExecPath:      chrome,
		Headless:      cfg.Browser.Headless,
		NoSandbox:     cfg.Browser.NoSandbox,
		DownloadDir:   dl,
		ActionTimeout: cfg.Browser.ActionTimeout.D(),
	}}, nil
}

func indigoOptions(cfg config.Config) indigo.Options {
	return indigo.Options{
		URL:             cfg.Indigo.URL,
		Guides:          cfg.Guides,
		OutputDir:       cfg.OutputDir,
		ElementTimeout:  cfg.Indigo.ElementTimeout.D(),
		SettleDelay:     cfg.Indigo.SettleDelay.D(),
		ResultTimeout:   cfg.Indigo.ResultTimeout.D(),
		DownloadTimeout: cfg.Indigo.DownloadTimeout.D(),
		PollInterval:    cfg.Indigo.PollInterval.D(),
		StaleRetries:    cfg.Indigo.StaleRetries,
		Highlighter:     highlight.New(),
	}
}
