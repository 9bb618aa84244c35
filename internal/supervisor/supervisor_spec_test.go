package supervisor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"indigorun/internal/browser"
	"indigorun/internal/browser/browsertest"
	"indigorun/internal/ice"
	"indigorun/internal/indigo"
	"indigorun/internal/report"
	"indigorun/internal/sample"
	"indigorun/internal/supervisor"
)

var _ = ginkgo.Describe("Supervisor", func() {
	var (
		ctx      context.Context
		launcher *browsertest.Launcher
		first    *browsertest.Driver
		second   *browsertest.Driver
		session  *browser.Session
		primary  *scriptedPrimary
		fallback *scriptedFallback
		reporter *report.Reporter
		sup      *supervisor.Supervisor
		item     sample.Item
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		first, second = browsertest.New(""), browsertest.New("")
		launcher = &browsertest.Launcher{Drivers: []*browsertest.Driver{first, second}}
		session = browser.NewSession(launcher)
		gomega.Expect(session.Open(ctx)).To(gomega.Succeed())

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		primary = &scriptedPrimary{}
		fallback = &scriptedFallback{available: true, result: ice.Result{OK: true, EditPercent: 41.5, FitQuality: 0.92}}
		reporter = report.New(quiet, nil)
		sup = &supervisor.Supervisor{
			Session:   session,
			Primary:   primary,
			Fallback:  fallback,
			Reference: "/data/wt.ab1",
			Target:    "AGCTTAGCTAGGCTAGCTAG",
			Reporter:  reporter,
			Log:       quiet,
			Now:       func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
		}
		item = sample.NewItem("/data/in/s01.ab1")
	})

	ginkgo.Context("when the primary tool succeeds", func() {
		ginkgo.It("records Success and never calls the fallback", func() {
			out := sup.Item(ctx, item)

			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.Succeeded,
			}))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusSuccess))
			gomega.Expect(out.Record.FallbackUsed).To(gomega.Equal(report.FallbackNo))
			gomega.Expect(out.Record.Tools).To(gomega.Equal(report.ToolIndigo))
			gomega.Expect(out.Record.Error).To(gomega.BeEmpty())
			gomega.Expect(fallback.calls).To(gomega.BeZero())
			gomega.Expect(launcher.Launched).To(gomega.Equal(1))
		})
	})

	ginkgo.Context("when the primary tool fails without losing the session", func() {
		ginkgo.BeforeEach(func() {
			primary.results = []indigo.Result{timeout()}
		})

		ginkgo.It("routes to the fallback without restarting the browser", func() {
			out := sup.Item(ctx, item)

			gomega.Expect(out.Final()).To(gomega.Equal(supervisor.Succeeded))
			gomega.Expect(out.Path).NotTo(gomega.ContainElement(supervisor.PrimaryRetried))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusSuccessViaICE))
			gomega.Expect(out.Record.FallbackUsed).To(gomega.Equal(report.FallbackYes))
			gomega.Expect(out.Record.Tools).To(gomega.Equal(report.ToolIndigoICE))
			gomega.Expect(out.Record.PrimaryError).To(gomega.ContainSubstring("timed out"))
			gomega.Expect(out.Record.EditPercent).To(gomega.Equal(41.5))
			gomega.Expect(out.Record.FitQuality).To(gomega.Equal(0.92))
			gomega.Expect(launcher.Launched).To(gomega.Equal(1))
			gomega.Expect(primary.calls).To(gomega.Equal(1))
			gomega.Expect(fallback.targets).To(gomega.Equal([]string{"AGCTTAGCTAGGCTAGCTAG"}))
		})

		ginkgo.It("records both errors when the fallback fails too", func() {
			fallback.result = ice.Result{Kind: ice.KindNotInReference, Detail: "Target sequence not found in control sequence"}

			out := sup.Item(ctx, item)

			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.FallbackAttempted, supervisor.Failed,
			}))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusFailedBoth))
			gomega.Expect(out.Record.FallbackUsed).To(gomega.Equal(report.FallbackAttempted))
			gomega.Expect(out.Record.PrimaryError).NotTo(gomega.BeEmpty())
			gomega.Expect(out.Record.FallbackError).To(gomega.Equal("Target sequence not found in control sequence"))
			gomega.Expect(out.Record.Error).To(gomega.Equal(out.Record.FallbackError))
		})

		ginkgo.It("never calls an unavailable fallback", func() {
			fallback.available = false

			out := sup.Item(ctx, item)

			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.FallbackUnavailable, supervisor.Failed,
			}))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusFailedUnavailable))
			gomega.Expect(out.Record.FallbackUsed).To(gomega.Equal(report.FallbackNA))
			gomega.Expect(out.Record.Error).To(gomega.Equal("ICE module not available"))
			gomega.Expect(fallback.calls).To(gomega.BeZero())
		})
	})

	ginkgo.Context("when the browser session is lost", func() {
		ginkgo.It("replaces the browser once and succeeds on the retry", func() {
			primary.results = []indigo.Result{sessionLost()}

			out := sup.Item(ctx, item)

			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.PrimaryRetried, supervisor.Succeeded,
			}))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusSuccess))
			gomega.Expect(out.Record.Retried).To(gomega.BeTrue())
			gomega.Expect(out.Record.Note).To(gomega.Equal(supervisor.RestartNote))
			gomega.Expect(launcher.Launched).To(gomega.Equal(2))
			gomega.Expect(first.Closed).To(gomega.BeTrue())
			gomega.Expect(primary.drivers).To(gomega.HaveLen(2))
			gomega.Expect(primary.drivers[1]).To(gomega.BeIdenticalTo(browser.Driver(second)))
			gomega.Expect(fallback.calls).To(gomega.BeZero())
		})

		ginkgo.It("falls back after a second session loss without another restart", func() {
			primary.results = []indigo.Result{sessionLost(), sessionLost()}

			out := sup.Item(ctx, item)

			gomega.Expect(launcher.Launched).To(gomega.Equal(2))
			gomega.Expect(primary.calls).To(gomega.Equal(2))
			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.PrimaryRetried,
				supervisor.FallbackAttempted, supervisor.Succeeded,
			}))
			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusSuccessViaICE))
			gomega.Expect(out.Record.Retried).To(gomega.BeTrue())
			gomega.Expect(out.Record.Note).To(gomega.BeEmpty())
		})

		ginkgo.It("uses the relaunch error as the primary error when the restart fails", func() {
			launcher.Drivers = nil
			launcher.Errs = []error{errors.New("chrome failed to start")}
			primary.results = []indigo.Result{sessionLost()}

			out := sup.Item(ctx, item)

			gomega.Expect(primary.calls).To(gomega.Equal(1))
			gomega.Expect(out.Path).To(gomega.Equal([]supervisor.State{
				supervisor.NotStarted, supervisor.PrimaryAttempted, supervisor.FallbackAttempted, supervisor.Succeeded,
			}))
			gomega.Expect(out.Record.PrimaryError).To(gomega.ContainSubstring("chrome failed to start"))
			gomega.Expect(session.Driver()).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("Process", func() {
		var items []sample.Item

		ginkgo.BeforeEach(func() {
			items = []sample.Item{
				sample.NewItem("/data/in/a.ab1"),
				sample.NewItem("/data/in/b.ab1"),
				sample.NewItem("/data/in/c.ab1"),
			}
		})

		ginkgo.It("records exactly one outcome per item in order", func() {
			primary.results = []indigo.Result{{OK: true}, timeout(), {OK: true}}
			fallback.result = ice.Result{Kind: ice.KindFailed, Detail: "ICE analysis failed: low quality"}

			gomega.Expect(sup.Process(ctx, items)).To(gomega.Succeed())

			recs := reporter.Records()
			gomega.Expect(recs).To(gomega.HaveLen(3))
			gomega.Expect([]string{recs[0].Sample, recs[1].Sample, recs[2].Sample}).To(gomega.Equal([]string{"a.ab1", "b.ab1", "c.ab1"}))
			gomega.Expect(recs[1].Status).To(gomega.Equal(report.StatusFailedBoth))

			s := reporter.Finish(time.Now())
			gomega.Expect(s.Succeeded + s.Failed).To(gomega.Equal(len(items)))
		})

		ginkgo.It("records remaining items as interrupted after cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			primary.before = cancel
			primary.results = []indigo.Result{timeout()}

			err := sup.Process(cctx, items)

			gomega.Expect(err).To(gomega.MatchError(context.Canceled))
			gomega.Expect(primary.calls).To(gomega.Equal(1))
			gomega.Expect(fallback.calls).To(gomega.BeZero())
			recs := reporter.Records()
			gomega.Expect(recs).To(gomega.HaveLen(3))
			for _, r := range recs {
				gomega.Expect(r.Status).To(gomega.Equal(report.StatusFailedInterrupted))
				gomega.Expect(r.Status.Succeeded()).To(gomega.BeFalse())
			}
			gomega.Expect(recs[0].PrimaryError).To(gomega.ContainSubstring("timed out"))
		})

		ginkgo.It("treats a missing driver as a lost session", func() {
			gomega.Expect(session.Close()).To(gomega.Succeed())

			out := sup.Item(ctx, items[0])

			gomega.Expect(out.Record.Status).To(gomega.Equal(report.StatusSuccess))
			gomega.Expect(out.Record.Retried).To(gomega.BeTrue())
			gomega.Expect(primary.calls).To(gomega.Equal(1))
		})
	})
})
