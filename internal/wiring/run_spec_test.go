package wiring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"indigorun/internal/browser"
	"indigorun/internal/browser/browsertest"
	"indigorun/internal/ice/icetest"
	"indigorun/internal/prereq"
	"indigorun/internal/report"
)

var _ = ginkgo.Describe("Run", func() {
	ginkgo.It("routes a web tool failure to ICE and records its numbers", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1")
		drv := okDriver(f.cfg.OutputDir)
		drv.Page = "<p>Error in running Indigo: Trace too short</p>"
		runner := icetest.OK(63.2, 0.88)

		res, err := Run(context.Background(), f.cfg, f.deps(&browsertest.Launcher{Drivers: []*browsertest.Driver{drv}}, runner))
		gomega.Expect(err).To(gomega.Succeed())

		gomega.Expect(res.Records).To(gomega.HaveLen(1))
		rec := res.Records[0]
		gomega.Expect(rec.Status).To(gomega.Equal(report.StatusSuccessViaICE))
		gomega.Expect(rec.PrimaryError).To(gomega.Equal("Trace too short"))
		gomega.Expect(rec.EditPercent).To(gomega.Equal(63.2))
		gomega.Expect(runner.Requests).To(gomega.HaveLen(1))
		gomega.Expect(runner.Requests[0].Guide).To(gomega.Equal(f.cfg.FallbackTarget))
		gomega.Expect(runner.Requests[0].OutputPrefix).To(gomega.Equal(
			filepath.Join(f.root, "results", "ICE_RESULTS", "s01", "ICE")))
	})

	ginkgo.It("restarts a dead browser once and records the note", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1")
		dead := okDriver(f.cfg.OutputDir)
		dead.FailOn("Navigate", fmt.Errorf("%w: invalid session id", browser.ErrSessionLost))
		fresh := okDriver(f.cfg.OutputDir)
		launcher := &browsertest.Launcher{Drivers: []*browsertest.Driver{dead, fresh}}

		res, err := Run(context.Background(), f.cfg, f.deps(launcher, icetest.OK(1, 1)))
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(launcher.Launched).To(gomega.Equal(2))
		gomega.Expect(dead.Closed).To(gomega.BeTrue())
		gomega.Expect(res.Records[0].Status).To(gomega.Equal(report.StatusSuccess))
		gomega.Expect(res.Records[0].Note).To(gomega.Equal("succeeded after browser session restart"))
	})

	ginkgo.It("fails before any browser starts when prerequisites are missing", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1")
		f.cfg.Reference = filepath.Join(f.root, "missing.ab1")
		launcher := &browsertest.Launcher{}

		_, err := Run(context.Background(), f.cfg, f.deps(launcher, icetest.OK(1, 1)))
		gomega.Expect(prereq.IsPrerequisite(err)).To(gomega.BeTrue())
		gomega.Expect(launcher.Launched).To(gomega.BeZero())
		gomega.Expect(f.reports(ginkgo.GinkgoT())).To(gomega.BeEmpty())
	})

	ginkgo.It("fails without a report when the browser cannot start", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1")
		launcher := &browsertest.Launcher{Errs: []error{errors.New("chrome not reachable")}}

		_, err := Run(context.Background(), f.cfg, f.deps(launcher, icetest.OK(1, 1)))
		gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("chrome not reachable")))
		gomega.Expect(f.reports(ginkgo.GinkgoT())).To(gomega.BeEmpty())
	})

	ginkgo.It("writes a partial report when interrupted", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1", "s02.ab1", "s03.ab1")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		drv := okDriver(f.cfg.OutputDir)
		drv.OnClick["#btn-submit"] = func(*browsertest.Driver) { cancel() }
		runner := icetest.OK(1, 1)

		res, err := Run(ctx, f.cfg, f.deps(&browsertest.Launcher{Drivers: []*browsertest.Driver{drv}}, runner))
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.Interrupted).To(gomega.BeTrue())
		gomega.Expect(res.Records).To(gomega.HaveLen(3))
		for _, r := range res.Records {
			gomega.Expect(r.Status).To(gomega.Equal(report.StatusFailedInterrupted))
		}
		gomega.Expect(runner.Calls()).To(gomega.BeZero())
		gomega.Expect(f.reports(ginkgo.GinkgoT())).To(gomega.HaveLen(1))
		gomega.Expect(drv.Closed).To(gomega.BeTrue())
	})

	ginkgo.It("appends to an existing run log", func() {
		f := newFixture(ginkgo.GinkgoT(), "s01.ab1")
		gomega.Expect(os.MkdirAll(f.cfg.OutputDir, 0o755)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(f.cfg.LogPath(), []byte("previous run\n"), 0o644)).To(gomega.Succeed())

		_, err := Run(context.Background(), f.cfg, f.deps(&browsertest.Launcher{Drivers: []*browsertest.Driver{okDriver(f.cfg.OutputDir)}}, icetest.OK(1, 1)))
		gomega.Expect(err).To(gomega.Succeed())

		data, err := os.ReadFile(f.cfg.LogPath())
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(string(data)).To(gomega.HavePrefix("previous run\n"))
		gomega.Expect(string(data)).To(gomega.ContainSubstring("analysis complete"))
	})
})
