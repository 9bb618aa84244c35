package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Counter is a slog.Handler that counts Warn and Error records before
// delegating to the wrapped handler. Derived handlers share the counts.
type Counter struct {
	next   slog.Handler
	counts *counts
}

type counts struct {
	warnings atomic.Int64
	errors   atomic.Int64
}

// NewCounter wraps next.
func NewCounter(next slog.Handler) *Counter {
	return &Counter{next: next, counts: &counts{}}
}

func (c *Counter) Enabled(ctx context.Context, l slog.Level) bool {
	// Warnings and errors are always counted, even when no sink wants them.
	return l >= slog.LevelWarn || c.next.Enabled(ctx, l)
}

func (c *Counter) Handle(ctx context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		c.counts.errors.Add(1)
	case r.Level >= slog.LevelWarn:
		c.counts.warnings.Add(1)
	}
	if !c.next.Enabled(ctx, r.Level) {
		return nil
	}
	return c.next.Handle(ctx, r)
}

func (c *Counter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Counter{next: c.next.WithAttrs(attrs), counts: c.counts}
}

func (c *Counter) WithGroup(name string) slog.Handler {
	return &Counter{next: c.next.WithGroup(name), counts: c.counts}
}

// Warnings returns the number of Warn-level records seen.
func (c *Counter) Warnings() int { return int(c.counts.warnings.Load()) }

// Errors returns the number of Error-level (and above) records seen.
func (c *Counter) Errors() int { return int(c.counts.errors.Load()) }
