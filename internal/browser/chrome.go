package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// Options configures a Chrome launch.
type Options struct {
	ExecPath      string // empty lets chromedp find Chrome on PATH
	Headless      bool
	NoSandbox     bool
	DownloadDir   string
	ActionTimeout time.Duration // navigation and single-action bound
}

// ChromeLauncher launches Chrome instances with fixed Options.
type ChromeLauncher struct {
	Options Options
}

func (l ChromeLauncher) Launch(ctx context.Context) (Driver, error) {
	return LaunchChrome(ctx, l.Options)
}

// Chrome is a Driver backed by a chromedp tab.
type Chrome struct {
	opts        Options
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// LaunchChrome starts a browser process and opens one tab with downloads
// routed to opts.DownloadDir. The browser is detached from ctx cancellation
// so that it can still be closed cleanly after an interrupt.
func LaunchChrome(ctx context.Context, opts Options) (*Chrome, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}
	dl, err := filepath.Abs(opts.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("resolve download dir: %w", err)
	}
	opts.DownloadDir = dl

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	c := &Chrome{opts: opts, tab: tab, cancelTab: cancelTab, cancelAlloc: cancelAlloc}

	startCtx, cancel := context.WithTimeout(tab, opts.ActionTimeout)
	defer cancel()
	err = chromedp.Run(startCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(opts.DownloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	return c, nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, c.opts.ActionTimeout, chromedp.Navigate(url))
}

func (c *Chrome) WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) error {
	return c.run(ctx, timeout, chromedp.WaitReady(sel.Query, queryOption(sel)))
}

func (c *Chrome) Upload(ctx context.Context, sel Selector, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve upload path: %w", err)
	}
	return c.run(ctx, c.opts.ActionTimeout, chromedp.SetUploadFiles(sel.Query, []string{abs}, queryOption(sel)))
}

func (c *Chrome) Value(ctx context.Context, sel Selector) (string, error) {
	var v string
	err := c.run(ctx, c.opts.ActionTimeout, chromedp.Value(sel.Query, &v, queryOption(sel)))
	return v, err
}

func (c *Chrome) Click(ctx context.Context, sel Selector) error {
	return c.run(ctx, c.opts.ActionTimeout,
		chromedp.ScrollIntoView(sel.Query, queryOption(sel)),
		chromedp.Click(sel.Query, queryOption(sel)),
	)
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, c.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) DownloadDir() string { return c.opts.DownloadDir }

// Close shuts the browser down. Safe to call more than once.
func (c *Chrome) Close() error {
	var err error
	if c.tab.Err() == nil {
		err = chromedp.Cancel(c.tab)
	}
	c.cancelTab()
	c.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := c.tab.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	runCtx, cancel := context.WithTimeout(c.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return c.classify(ctx, chromedp.Run(runCtx, actions...))
}

func (c *Chrome) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if c.tab.Err() != nil || sessionGone(err) {
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if staleNode(err) {
		return fmt.Errorf("%w: %v", ErrStaleElement, err)
	}
	return err
}

var sessionGoneMarkers = []string{
	"websocket: close",
	"use of closed network connection",
	"target closed",
	"no target with given id",
}

func sessionGone(err error) bool {
	if errors.Is(err, chromedp.ErrInvalidContext) || errors.Is(err, chromedp.ErrChannelClosed) {
		return true
	}
	return containsAny(err.Error(), sessionGoneMarkers)
}

var staleMarkers = []string{
	"no node with given id",
	"could not find node with given id",
	"node is detached",
	"cannot find context with specified id",
}

func staleNode(err error) bool {
	return containsAny(err.Error(), staleMarkers)
}

func containsAny(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func queryOption(sel Selector) chromedp.QueryOption {
	switch sel.By {
	case ByID:
		return chromedp.ByID
	case ByXPath:
		return chromedp.BySearch
	default:
		return chromedp.ByQuery
	}
}
