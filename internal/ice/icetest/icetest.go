// Package icetest provides a scripted ice.Runner.
package icetest

import (
	"context"
	"sync"

	"indigorun/internal/ice"
)

// Runner returns Raw/Err from every Run and records the requests.
type Runner struct {
	ProbeErr error
	Raw      any
	Err      error

	mu       sync.Mutex
	Requests []ice.Request
}

// OK returns a Runner that always succeeds with the given metrics.
func OK(editPercent, fit float64) *Runner {
	return &Runner{Raw: map[string]any{"ice": editPercent, "rsq": fit}}
}

func (r *Runner) Probe(context.Context) error { return r.ProbeErr }

func (r *Runner) Run(_ context.Context, req ice.Request) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, req)
	return r.Raw, r.Err
}

// Calls returns the number of Run calls.
func (r *Runner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Requests)
}
