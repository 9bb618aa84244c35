// Package indigo drives one INDIGO web analysis per sample through a
// browser.Driver and classifies the outcome.
package indigo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"indigorun/internal/browser"
	"indigorun/internal/format"
	"indigorun/internal/highlight"
	"indigorun/internal/logging"
	"indigorun/internal/sample"
	"indigorun/internal/waitfor"
)

var errUploadNotConfirmed = errors.New("upload verification failed - no file selected")

// Options configures an Invoker. Zero durations take the defaults below.
type Options struct {
	URL             string
	UI              UI
	Guides          []string
	OutputDir       string
	ElementTimeout  time.Duration // 30s
	VerifyTimeout   time.Duration // 2s
	SettleDelay     time.Duration // 15s
	ResultTimeout   time.Duration // 30s
	DownloadTimeout time.Duration // 30s
	PollInterval    time.Duration // 250ms
	StaleRetries    int
	StalePause      time.Duration // 2s
	Highlighter     *highlight.Highlighter
	Log             *slog.Logger
}

// Invoker runs the INDIGO protocol.
type Invoker struct {
	opts Options
	log  *slog.Logger
}

// New returns an Invoker with defaults applied.
func New(o Options) *Invoker {
	if o.UI == (UI{}) {
		o.UI = DefaultUI
	}
	setDefault(&o.ElementTimeout, 30*time.Second)
	setDefault(&o.VerifyTimeout, 2*time.Second)
	setDefault(&o.SettleDelay, 15*time.Second)
	setDefault(&o.ResultTimeout, 30*time.Second)
	setDefault(&o.DownloadTimeout, 30*time.Second)
	setDefault(&o.PollInterval, waitfor.DefaultInterval)
	setDefault(&o.StalePause, 2*time.Second)
	if o.Highlighter == nil {
		o.Highlighter = highlight.New()
	}
	log := o.Log
	if log == nil {
		log = logging.New("indigo")
	}
	return &Invoker{opts: o, log: log}
}

func setDefault(d *time.Duration, v time.Duration) {
	if *d <= 0 {
		*d = v
	}
}

// Analyze runs the full protocol for item against reference. Stale element
// failures restart the protocol up to StaleRetries times; session loss is
// returned immediately so the caller can replace the browser.
func (inv *Invoker) Analyze(ctx context.Context, drv browser.Driver, item sample.Item, reference string) Result {
	log := inv.log.With(slog.String("sample", item.Name))
	for attempt := 0; ; attempt++ {
		res := inv.attempt(ctx, drv, item, reference)
		if res.Kind != KindStale {
			return res
		}
		if attempt >= inv.opts.StaleRetries {
			return failure(KindStale, "Stale element reference after retries")
		}
		log.Warn("stale element reference, retrying", slog.Int("attempt", attempt+1))
		if err := waitfor.Pause(ctx, inv.opts.StalePause); err != nil {
			return inv.classify(err)
		}
	}
}

func (inv *Invoker) attempt(ctx context.Context, drv browser.Driver, item sample.Item, reference string) Result {
	log := inv.log.With(slog.String("sample", item.Name))
	if _, err := os.Stat(item.Path); err != nil {
		return failure(KindIO, "Input file not found: "+item.Path)
	}
	ui := inv.opts.UI

	if err := drv.Navigate(ctx, inv.opts.URL); err != nil {
		return inv.classify(fmt.Errorf("load INDIGO website: %w", err))
	}
	if err := inv.upload(ctx, drv, ui.SampleInput, item.Path, "sample"); err != nil {
		return inv.classify(err)
	}
	log.Debug("uploaded sample")
	if err := inv.click(ctx, drv, ui.ReferenceTab, "wildtype chromatogram tab"); err != nil {
		return inv.classify(err)
	}
	if err := inv.upload(ctx, drv, ui.ReferenceInput, reference, "wildtype"); err != nil {
		return inv.classify(err)
	}
	log.Debug("uploaded wildtype")
	if err := inv.click(ctx, drv, ui.Submit, "submit button"); err != nil {
		return inv.classify(err)
	}

	log.Debug("waiting for INDIGO analysis", slog.Duration("settle", inv.opts.SettleDelay))
	if err := inv.settle(ctx, drv); err != nil {
		return inv.classify(fmt.Errorf("wait for analysis: %w", err))
	}

	err := drv.WaitPresent(ctx, ui.DownloadLink, inv.opts.ResultTimeout)
	switch {
	case err == nil:
		return inv.download(ctx, drv, item)
	case errors.Is(err, browser.ErrTimeout):
		log.Debug("download link not found, reading page content")
		return inv.fromPage(ctx, drv, item)
	default:
		return inv.classify(fmt.Errorf("wait for download link: %w", err))
	}
}

func (inv *Invoker) upload(ctx context.Context, drv browser.Driver, sel browser.Selector, path, what string) error {
	if err := drv.WaitPresent(ctx, sel, inv.opts.ElementTimeout); err != nil {
		return fmt.Errorf("wait for %s upload element: %w", what, err)
	}
	if err := drv.Upload(ctx, sel, path); err != nil {
		return fmt.Errorf("upload %s file: %w", what, err)
	}
	err := waitfor.Until(ctx, inv.opts.PollInterval, inv.opts.VerifyTimeout, func(ctx context.Context) (bool, error) {
		v, err := drv.Value(ctx, sel)
		if err != nil {
			return false, err
		}
		return v != "", nil
	})
	if errors.Is(err, waitfor.ErrDeadline) {
		return fmt.Errorf("%s file %w", what, errUploadNotConfirmed)
	}
	if err != nil {
		return fmt.Errorf("verify %s upload: %w", what, err)
	}
	return nil
}

func (inv *Invoker) click(ctx context.Context, drv browser.Driver, sel browser.Selector, what string) error {
	if err := drv.WaitPresent(ctx, sel, inv.opts.ElementTimeout); err != nil {
		return fmt.Errorf("wait for %s: %w", what, err)
	}
	if err := drv.Click(ctx, sel); err != nil {
		return fmt.Errorf("click %s: %w", what, err)
	}
	return nil
}

// settle polls the page until it shows either the download affordance or a
// failure marker. Running out of time is not an error.
func (inv *Invoker) settle(ctx context.Context, drv browser.Driver) error {
	err := waitfor.Until(ctx, inv.opts.PollInterval, inv.opts.SettleDelay, func(ctx context.Context) (bool, error) {
		page, err := drv.HTML(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(page, DownloadLinkText) || hasMarker(page), nil
	})
	if errors.Is(err, waitfor.ErrDeadline) {
		return nil
	}
	return err
}

func (inv *Invoker) download(ctx context.Context, drv browser.Driver, item sample.Item) Result {
	dir := drv.DownloadDir()
	before, err := listFiles(dir)
	if err != nil {
		return failure(KindIO, fmt.Sprintf("Error reading download dir: %v", err))
	}
	if err := drv.Click(ctx, inv.opts.UI.DownloadLink); err != nil {
		return inv.classify(fmt.Errorf("click download link: %w", err))
	}

	var landed string
	err = waitfor.Until(ctx, inv.opts.PollInterval, inv.opts.DownloadTimeout, func(context.Context) (bool, error) {
		name, err := newDownload(dir, before)
		landed = name
		return name != "", err
	})
	if errors.Is(err, waitfor.ErrDeadline) {
		return failure(KindTimeout, fmt.Sprintf("Timeout waiting for download after %s", inv.opts.DownloadTimeout))
	}
	if err != nil {
		return inv.classify(fmt.Errorf("wait for download: %w", err))
	}

	src := filepath.Join(dir, landed)
	dst := filepath.Join(inv.opts.OutputDir, item.ID+"_results.html")
	if err := os.Rename(src, dst); err != nil {
		inv.log.Warn("could not rename downloaded result, keeping browser file name",
			slog.String("sample", item.Name), slog.Any("err", err))
		dst = src
	}
	inv.log.Debug("downloaded HTML", slog.String("sample", item.Name), slog.String("path", dst))
	return Result{OK: true, OutputPath: dst, Downloaded: true}
}

func (inv *Invoker) fromPage(ctx context.Context, drv browser.Driver, item sample.Item) Result {
	page, err := drv.HTML(ctx)
	if err != nil {
		return inv.classify(fmt.Errorf("read result page: %w", err))
	}
	if detail, ok := Scan(page); ok {
		return failure(KindServiceError, detail)
	}

	highlighted := inv.opts.Highlighter.Highlight(page, inv.opts.Guides)
	dst := filepath.Join(inv.opts.OutputDir, item.ID+"_results_highlighted.html")
	if err := os.WriteFile(dst, []byte(highlighted), 0o644); err != nil {
		return failure(KindIO, fmt.Sprintf("Error saving results to file: %v", err))
	}
	inv.log.Debug("saved results from page source", slog.String("sample", item.Name), slog.String("path", dst))
	return Result{OK: true, OutputPath: dst}
}

func (inv *Invoker) classify(err error) Result {
	switch {
	case errors.Is(err, browser.ErrSessionLost):
		return failure(KindSessionLost, format.Clip(err.Error(), 100))
	case errors.Is(err, browser.ErrStaleElement):
		return failure(KindStale, "Element reference became stale: "+format.Clip(err.Error(), 100))
	case errors.Is(err, browser.ErrTimeout):
		return failure(KindTimeout, format.Clip(err.Error(), 100))
	case errors.Is(err, errUploadNotConfirmed):
		return failure(KindVerifyFailed, err.Error())
	default:
		return failure(KindUnexpected, "WebDriver error: "+format.Clip(err.Error(), 100))
	}
}

func listFiles(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}

// newDownload returns the name of a completed file in dir that was not
// present before, ignoring in-progress Chrome downloads.
func newDownload(dir string, before map[string]bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || before[name] || strings.HasSuffix(name, ".crdownload") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		return name, nil
	}
	return "", nil
}
