// Package ice runs the local ICE analysis as the fallback when the INDIGO
// web tool fails for a sample.
package ice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"indigorun/internal/format"
	"indigorun/internal/logging"
	"indigorun/internal/sample"
)

// UnavailableDetail is reported for every sample when ICE could not be loaded.
const UnavailableDetail = "ICE module not available"

// errorRules map analysis failure messages to kinds, first match wins.
var errorRules = []struct {
	contains string
	kind     FailureKind
	detail   string
}{
	{"not found in control sequence", KindNotInReference, "Target sequence not found in control sequence"},
	{"No such file or directory", KindFileNotFound, "File not found during ICE analysis"},
}

// Options configures a Fallback.
type Options struct {
	Runner    Runner
	OutputDir string // per-sample results go to OutputDir/<id>/ICE*
	Verbose   bool
	Log       *slog.Logger
}

// Fallback is the ICE invoker. Availability is fixed by Probe.
type Fallback struct {
	runner    Runner
	outDir    string
	verbose   bool
	log       *slog.Logger
	available bool
}

// New returns a Fallback that reports unavailable until Probe succeeds.
func New(o Options) *Fallback {
	log := o.Log
	if log == nil {
		log = logging.New("ice")
	}
	return &Fallback{runner: o.Runner, outDir: o.OutputDir, verbose: o.Verbose, log: log}
}

// Probe decides availability once. A failed probe is logged as a warning and
// the run continues with the primary tool only.
func (f *Fallback) Probe(ctx context.Context) bool {
	if f.runner == nil {
		f.log.Warn("ICE runner not configured, continuing without fallback")
		f.available = false
		return false
	}
	if err := f.runner.Probe(ctx); err != nil {
		f.log.Warn("ICE module import failed, continuing without fallback", slog.Any("err", err))
		f.available = false
		return false
	}
	f.log.Info("ICE module loaded")
	f.available = true
	return true
}

// Available reports the result of the last Probe.
func (f *Fallback) Available() bool { return f.available }

// Analyze runs ICE on item against reference for the target sequence.
func (f *Fallback) Analyze(ctx context.Context, item sample.Item, reference, target string) Result {
	if !f.available {
		return failure(KindUnavailable, UnavailableDetail)
	}
	log := f.log.With(slog.String("sample", item.Name))

	dir := filepath.Join(f.outDir, item.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failure(KindIO, fmt.Sprintf("Cannot create output directory: %v", err))
	}
	if !exists(item.Path) {
		return failure(KindMissingInput, "Input file not found: "+item.Path)
	}
	if !exists(reference) {
		return failure(KindMissingInput, "Wildtype file not found: "+reference)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return failure(KindInvalidTarget, "Invalid target sequence: empty")
	}

	raw, err := f.runner.Run(ctx, Request{
		ControlPath:  reference,
		SamplePath:   item.Path,
		OutputPrefix: filepath.Join(dir, "ICE"),
		Guide:        target,
		Verbose:      f.verbose,
	})
	if errors.Is(err, ErrNoResult) {
		return failure(KindParse, "Error parsing ICE results: "+err.Error())
	}
	if err != nil {
		log.Debug("ICE run failed", slog.Any("err", err))
		return classify(err)
	}

	m, err := ParseResult(raw)
	if err != nil {
		return failure(KindParse, "Error parsing ICE results: "+err.Error())
	}
	editOK, fitOK := m.InRange()
	if !editOK {
		log.Warn("unusual indel percentage", slog.Float64("ice", m.EditPercent))
	}
	if !fitOK {
		log.Warn("unusual R² value", slog.Float64("rsq", m.FitQuality))
	}
	return Result{OK: true, EditPercent: m.EditPercent, FitQuality: m.FitQuality}
}

func classify(err error) Result {
	msg := err.Error()
	for _, r := range errorRules {
		if strings.Contains(msg, r.contains) {
			return failure(r.kind, r.detail)
		}
	}
	return failure(KindFailed, "ICE analysis failed: "+format.Clip(msg, 100))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
