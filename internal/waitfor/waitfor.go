// Package waitfor provides bounded polling: check a condition until it holds,
// the deadline passes or the context is cancelled.
package waitfor

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline is returned when the condition did not hold before the timeout.
var ErrDeadline = errors.New("condition not met before deadline")

// DefaultInterval is used when Until is given a non-positive interval.
const DefaultInterval = 250 * time.Millisecond

// Condition reports whether the awaited state has been reached. A non-nil
// error aborts the wait and is returned as is.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond immediately and then every interval until it returns
// true, returns an error, timeout elapses (ErrDeadline) or ctx ends.
func Until(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrDeadline
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Pause sleeps for d or until ctx ends, whichever is first.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
