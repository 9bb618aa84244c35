package wiring

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"indigorun/internal/abif/abiftest"
	"indigorun/internal/browser/browsertest"
	"indigorun/internal/config"
	"indigorun/internal/ice"
	"indigorun/internal/indigo"
)

// testingT is satisfied by *testing.T and ginkgo.GinkgoT().
type testingT interface {
	Helper()
	TempDir() string
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

type fixture struct {
	root string
	cfg  config.Config
	out  *bytes.Buffer
}

func newFixture(t testingT, samples ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "in")
	if err := os.MkdirAll(in, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		abiftest.Write(t, filepath.Join(in, s))
	}
	ref := filepath.Join(root, "wildtype.ab1")
	abiftest.Write(t, ref)

	cfg := config.Default()
	cfg.InputDir = in
	cfg.Reference = ref
	cfg.OutputDir = filepath.Join(root, "results", "INDIGO")
	cfg.Guides = []string{"ACGT"}
	cfg.FallbackTarget = "ACGTACGTACGTACGTACGT"
	cfg.Indigo.SettleDelay = config.Duration(time.Millisecond)
	cfg.Indigo.PollInterval = config.Duration(time.Millisecond)
	cfg.Indigo.ResultTimeout = config.Duration(time.Millisecond)
	cfg.Indigo.DownloadTimeout = config.Duration(20 * time.Millisecond)
	cfg.LogLevel = "debug"
	return &fixture{root: root, cfg: cfg, out: &bytes.Buffer{}}
}

func (f *fixture) deps(l *browsertest.Launcher, r ice.Runner) Deps {
	return Deps{Launcher: l, Runner: r, Console: io.Discard, Out: f.out}
}

// okDriver completes every form step and serves a result page without a
// download link.
func okDriver(dir string) *browsertest.Driver {
	d := browsertest.New(dir).With(
		indigo.DefaultUI.SampleInput,
		indigo.DefaultUI.ReferenceTab,
		indigo.DefaultUI.ReferenceInput,
		indigo.DefaultUI.Submit,
	)
	d.Page = "<html><pre>ttACGTtt</pre></html>"
	return d
}

func (f *fixture) reports(t testingT) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.cfg.ResolvedReportDir(), "hybrid_analysis_report_*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
