package supervisor_test

import (
	"context"

	"indigorun/internal/browser"
	"indigorun/internal/ice"
	"indigorun/internal/indigo"
	"indigorun/internal/sample"
)

// scriptedPrimary returns queued results in order, then success.
type scriptedPrimary struct {
	results []indigo.Result
	before  func()
	calls   int
	drivers []browser.Driver
}

func (p *scriptedPrimary) Analyze(_ context.Context, drv browser.Driver, item sample.Item, _ string) indigo.Result {
	p.calls++
	p.drivers = append(p.drivers, drv)
	if p.before != nil {
		p.before()
	}
	if len(p.results) == 0 {
		return indigo.Result{OK: true, OutputPath: item.ID + "_results_highlighted.html"}
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r
}

type scriptedFallback struct {
	available bool
	result    ice.Result
	calls     int
	targets   []string
}

func (f *scriptedFallback) Available() bool { return f.available }

func (f *scriptedFallback) Analyze(_ context.Context, _ sample.Item, _, target string) ice.Result {
	f.calls++
	f.targets = append(f.targets, target)
	return f.result
}

func sessionLost() indigo.Result {
	return indigo.Result{Kind: indigo.KindSessionLost, Detail: "browser: session lost: invalid session id"}
}

func timeout() indigo.Result {
	return indigo.Result{Kind: indigo.KindTimeout, Detail: "wait for sample upload element: browser: timed out"}
}
