// Package supervisor runs every sample through the primary web tool, replaces
// the browser once when its session dies, routes failures to the fallback
// tool and records exactly one outcome per sample.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"indigorun/internal/browser"
	"indigorun/internal/display"
	"indigorun/internal/ice"
	"indigorun/internal/indigo"
	"indigorun/internal/logging"
	"indigorun/internal/report"
	"indigorun/internal/sample"
)

// RestartNote is recorded when the primary tool succeeded on the retry.
const RestartNote = "succeeded after browser session restart"

// Primary is the web tool invoker.
type Primary interface {
	Analyze(ctx context.Context, drv browser.Driver, item sample.Item, reference string) indigo.Result
}

// Fallback is the local tool invoker.
type Fallback interface {
	Available() bool
	Analyze(ctx context.Context, item sample.Item, reference, target string) ice.Result
}

// Session owns the browser driver. *browser.Session satisfies it.
type Session interface {
	Driver() browser.Driver
	Replace(ctx context.Context) error
}

// Recorder receives one record per sample. *report.Reporter satisfies it.
type Recorder interface {
	Add(rec report.Record)
}

// Supervisor processes samples sequentially.
type Supervisor struct {
	Session   Session
	Primary   Primary
	Fallback  Fallback
	Reference string
	Target    string // single fallback target applied to every sample
	Reporter  Recorder
	Log       *slog.Logger
	Now       func() time.Time
}

// Outcome is the record produced for one sample plus the states it passed.
type Outcome struct {
	Record report.Record
	Path   []State
}

// Final is the last state reached.
func (o Outcome) Final() State { return o.Path[len(o.Path)-1] }

// Process runs items in order and adds each outcome to the Reporter. When ctx
// is cancelled, the remaining items are recorded as interrupted and the
// context error is returned.
func (s *Supervisor) Process(ctx context.Context, items []sample.Item) error {
	log := s.logger()
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted, recording remaining samples", slog.Int("remaining", len(items)-i))
			for _, rest := range items[i:] {
				s.Reporter.Add(s.interrupted(s.baseRecord(rest), []State{NotStarted}).Record)
			}
			return err
		}
		log.Info(fmt.Sprintf("[%d/%d] processing", i+1, len(items)), slog.String("sample", item.Name))
		s.Reporter.Add(s.Item(ctx, item).Record)
	}
	return ctx.Err()
}

// Item drives one sample to a terminal state.
func (s *Supervisor) Item(ctx context.Context, item sample.Item) Outcome {
	out := s.item(ctx, item)
	codes := make([]string, len(out.Path))
	for i, st := range out.Path {
		codes[i] = st.String()
	}
	s.logger().Debug("sample finished",
		slog.String("sample", item.Name),
		slog.String("path", display.StatePath(codes)))
	return out
}

func (s *Supervisor) item(ctx context.Context, item sample.Item) Outcome {
	log := s.logger().With(slog.String("sample", item.Name))
	path := []State{NotStarted}
	step := func(to State) {
		from := path[len(path)-1]
		if !CanTransition(from, to) {
			panic(fmt.Sprintf("supervisor: illegal transition %s -> %s", from, to))
		}
		log.Debug("state", slog.String("from", from.String()), slog.String("to", to.String()))
		path = append(path, to)
	}
	rec := s.baseRecord(item)

	step(PrimaryAttempted)
	res := s.primary(ctx, item)
	primaryErr := res.Detail
	if res.SessionFatal() {
		log.Warn("browser session lost, restarting", slog.String("reason", res.Detail))
		if err := s.Session.Replace(ctx); err != nil {
			log.Error("failed to restart browser", slog.Any("err", err))
			primaryErr = err.Error()
		} else {
			step(PrimaryRetried)
			rec.Retried = true
			res = s.primary(ctx, item)
			primaryErr = res.Detail
		}
	}

	if res.OK {
		step(Succeeded)
		rec.Status = report.StatusSuccess
		rec.FallbackUsed = report.FallbackNo
		rec.OutputPath = res.OutputPath
		if rec.Retried {
			rec.Note = RestartNote
		}
		log.Info("INDIGO analysis successful", slog.String("output", res.OutputPath))
		return Outcome{Record: rec, Path: path}
	}
	rec.PrimaryError = primaryErr
	log.Warn("INDIGO analysis failed",
		slog.String("kind", primaryKind(res.Kind)), slog.String("error", primaryErr))

	if ctx.Err() != nil {
		return s.interrupted(rec, path)
	}

	if s.Fallback == nil || !s.Fallback.Available() {
		step(FallbackUnavailable)
		step(Failed)
		log.Warn("ICE not available, skipping fallback")
		rec.Status = report.StatusFailedUnavailable
		rec.FallbackUsed = report.FallbackNA
		rec.Error = ice.UnavailableDetail
		return Outcome{Record: rec, Path: path}
	}

	step(FallbackAttempted)
	log.Info("routing to ICE fallback")
	rec.Tools = report.ToolIndigoICE
	fres := s.Fallback.Analyze(ctx, item, s.Reference, s.Target)
	if fres.OK {
		step(Succeeded)
		rec.Status = report.StatusSuccessViaICE
		rec.FallbackUsed = report.FallbackYes
		rec.EditPercent = fres.EditPercent
		rec.FitQuality = fres.FitQuality
		log.Info("ICE analysis successful",
			slog.String("indel", fmt.Sprintf("%.2f%%", fres.EditPercent)),
			slog.String("r2", fmt.Sprintf("%.4f", fres.FitQuality)))
		return Outcome{Record: rec, Path: path}
	}

	step(Failed)
	rec.Status = report.StatusFailedBoth
	rec.FallbackUsed = report.FallbackAttempted
	rec.FallbackError = fres.Detail
	rec.Error = fres.Detail
	log.Error("ICE analysis failed",
		slog.String("kind", fallbackKind(fres.Kind)), slog.String("error", fres.Detail))
	return Outcome{Record: rec, Path: path}
}

func (s *Supervisor) primary(ctx context.Context, item sample.Item) indigo.Result {
	drv := s.Session.Driver()
	if drv == nil {
		return indigo.Result{Kind: indigo.KindSessionLost, Detail: browser.ErrNoDriver.Error()}
	}
	return s.Primary.Analyze(ctx, drv, item, s.Reference)
}

func (s *Supervisor) baseRecord(item sample.Item) report.Record {
	return report.Record{
		Sample:      item.Name,
		PrimaryTool: report.ToolIndigo,
		Tools:       report.ToolIndigo,
		Timestamp:   s.now(),
	}
}

func (s *Supervisor) interrupted(rec report.Record, path []State) Outcome {
	if last := path[len(path)-1]; !last.Terminal() {
		path = append(path, Failed)
	}
	rec.Status = report.StatusFailedInterrupted
	rec.FallbackUsed = report.FallbackNA
	rec.Error = "interrupted"
	return Outcome{Record: rec, Path: path}
}

func primaryKind(k indigo.FailureKind) string {
	return display.WithCode(display.PrimaryKind(k.String()), k.String())
}

func fallbackKind(k ice.FailureKind) string {
	return display.WithCode(display.FallbackKind(k.String()), k.String())
}

func (s *Supervisor) logger() *slog.Logger {
	if s.Log == nil {
		s.Log = logging.New("supervisor")
	}
	return s.Log
}

func (s *Supervisor) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
