package wiring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"indigorun/internal/browser/browsertest"
	"indigorun/internal/config"
	"indigorun/internal/ice/icetest"
	"indigorun/internal/report"
)

// BDD: Given three samples and a healthy web tool, When the run completes, Then all succeed and the report has three rows.
func TestRun_AllSamplesSucceed(t *testing.T) {
	f := newFixture(t, "s01.ab1", "s02.ab1", "s03.ab1")
	drv := okDriver(f.cfg.OutputDir)
	launcher := &browsertest.Launcher{Drivers: []*browsertest.Driver{drv}}

	res, err := Run(context.Background(), f.cfg, f.deps(launcher, icetest.OK(10, 0.9)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := res.Summary
	if s.Attempted != 3 || s.Succeeded != 3 || s.Failed != 0 {
		t.Errorf("summary = %+v", s)
	}
	if !strings.Contains(f.out.String(), "Success rate: 100.0%") {
		t.Errorf("summary output:\n%s", f.out.String())
	}
	for _, id := range []string{"s01", "s02", "s03"} {
		if _, err := os.Stat(filepath.Join(f.cfg.OutputDir, id+"_results_highlighted.html")); err != nil {
			t.Errorf("missing result for %s: %v", id, err)
		}
	}

	reports := f.reports(t)
	if len(reports) != 1 || s.ReportPath != reports[0] {
		t.Fatalf("reports = %v, summary path %q", reports, s.ReportPath)
	}
	data, _ := os.ReadFile(reports[0])
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 4 {
		t.Errorf("report has %d lines, want header + 3", n)
	}

	logData, err := os.ReadFile(f.cfg.LogPath())
	if err != nil || !strings.Contains(string(logData), "INDIGO analysis successful") {
		t.Errorf("run log missing or incomplete: %v", err)
	}
	if !drv.Closed {
		t.Error("browser not closed at end of run")
	}
	if launcher.Launched != 1 {
		t.Errorf("launched %d browsers, want 1", launcher.Launched)
	}
}

// BDD: Given two samples, the second failing in the web tool, and no ICE, When the run completes, Then 1/2 succeed at 50.0%.
func TestRun_OneFailureWithoutFallback(t *testing.T) {
	f := newFixture(t, "s01.ab1", "s02.ab1")
	drv := okDriver(f.cfg.OutputDir)
	drv.FailOn("Navigate", nil, errors.New("net::ERR_CONNECTION_RESET"))
	launcher := &browsertest.Launcher{Drivers: []*browsertest.Driver{drv}}
	runner := &icetest.Runner{ProbeErr: errors.New("No module named 'ice'")}

	res, err := Run(context.Background(), f.cfg, f.deps(launcher, runner))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Summary.Succeeded != 1 || res.Summary.Failed != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if got := res.Records[1].Status; got != report.StatusFailedUnavailable {
		t.Errorf("second status = %q", got)
	}
	if res.Records[1].FallbackUsed != report.FallbackNA {
		t.Errorf("FallbackUsed = %q", res.Records[1].FallbackUsed)
	}
	if runner.Calls() != 0 {
		t.Error("unavailable ICE must not run")
	}
	out := f.out.String()
	for _, want := range []string{"Success rate: 50.0%", "Failed (ICE unavailable)", "Issues Encountered"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// BDD: Given a run with one failed sample, When the run completes, Then the summary block is appended to analysis_log.txt.
func TestRun_SummaryAppendedToRunLog(t *testing.T) {
	f := newFixture(t, "s01.ab1", "s02.ab1")
	drv := okDriver(f.cfg.OutputDir)
	drv.FailOn("Navigate", nil, errors.New("net::ERR_CONNECTION_RESET"))
	launcher := &browsertest.Launcher{Drivers: []*browsertest.Driver{drv}}
	runner := &icetest.Runner{ProbeErr: errors.New("No module named 'ice'")}

	if _, err := Run(context.Background(), f.cfg, f.deps(launcher, runner)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(f.cfg.LogPath())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	logText := string(data)
	for _, want := range []string{
		"ANALYSIS COMPLETE",
		"Success rate: 50.0%",
		"Start time: ",
		"End time: ",
		"Issues Encountered",
		"Warnings: ",
	} {
		if !strings.Contains(logText, want) {
			t.Errorf("run log missing %q:\n%s", want, logText)
		}
	}
	if i, j := strings.Index(logText, "analysis complete"), strings.Index(logText, "ANALYSIS COMPLETE"); i < 0 || j < i {
		t.Error("summary block should follow the final log record")
	}
}

func TestExecRunner_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Fallback.Python = "/opt/py/bin/python3"
	cfg.Fallback.SourcePath = "/opt/ice"
	cfg.Fallback.Timeout = config.Duration(90 * time.Second)

	r := ExecRunner(cfg)
	if r.Python != "/opt/py/bin/python3" || r.SourcePath != "/opt/ice" {
		t.Errorf("runner = %+v", r)
	}
	if r.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 1m30s", r.Timeout)
	}
}
