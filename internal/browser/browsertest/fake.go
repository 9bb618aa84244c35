// Package browsertest provides a scripted in-memory browser.Driver.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"indigorun/internal/browser"
)

// Driver is a fake browser.Driver. Elements that exist are listed in
// Present; Fail queues errors per operation key ("Navigate", "WaitPresent
// #inputFile", "Upload #inputFile", "Value #inputFile", "Click #btn-submit",
// "HTML"). Each queued error is returned once, in order.
type Driver struct {
	mu sync.Mutex

	Present map[string]bool
	Values  map[string]string
	Page    string
	Fail    map[string][]error
	// OnClick runs after a successful click on the keyed selector.
	OnClick map[string]func(d *Driver)
	// UploadSetsValue makes Upload populate Values for the selector.
	UploadSetsValue bool
	Dir             string

	Calls  []string
	Closed bool
	// CloseErr is returned by Close.
	CloseErr error
}

// New returns a Driver whose uploads populate values and whose downloads go
// to dir.
func New(dir string) *Driver {
	return &Driver{
		Present:         map[string]bool{},
		Values:          map[string]string{},
		Fail:            map[string][]error{},
		OnClick:         map[string]func(*Driver){},
		UploadSetsValue: true,
		Dir:             dir,
	}
}

// With marks selectors as present.
func (d *Driver) With(sels ...browser.Selector) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range sels {
		d.Present[s.String()] = true
	}
	return d
}

// FailOn queues errs for the operation key.
func (d *Driver) FailOn(key string, errs ...error) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Fail[key] = append(d.Fail[key], errs...)
	return d
}

// Count returns how many calls were recorded for key.
func (d *Driver) Count(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Calls {
		if c == key {
			n++
		}
	}
	return n
}

func (d *Driver) record(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, key)
	if q := d.Fail[key]; len(q) > 0 {
		d.Fail[key] = q[1:]
		return q[0]
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.record("Navigate")
}

func (d *Driver) WaitPresent(ctx context.Context, sel browser.Selector, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := "WaitPresent " + sel.String()
	if err := d.record(key); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.Present[sel.String()] {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, sel)
	}
	return nil
}

func (d *Driver) Upload(_ context.Context, sel browser.Selector, path string) error {
	if err := d.record("Upload " + sel.String()); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.UploadSetsValue {
		d.Values[sel.String()] = `C:\fakepath\` + filepath.Base(path)
	}
	return nil
}

func (d *Driver) Value(_ context.Context, sel browser.Selector) (string, error) {
	if err := d.record("Value " + sel.String()); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Values[sel.String()], nil
}

func (d *Driver) Click(_ context.Context, sel browser.Selector) error {
	if err := d.record("Click " + sel.String()); err != nil {
		return err
	}
	d.mu.Lock()
	fn := d.OnClick[sel.String()]
	d.mu.Unlock()
	if fn != nil {
		fn(d)
	}
	return nil
}

func (d *Driver) HTML(_ context.Context) (string, error) {
	if err := d.record("HTML"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Page, nil
}

func (d *Driver) DownloadDir() string { return d.Dir }

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return d.CloseErr
}

// WriteDownload returns an OnClick hook that drops name into the download dir.
func WriteDownload(name, content string) func(*Driver) {
	return func(d *Driver) {
		_ = os.WriteFile(filepath.Join(d.Dir, name), []byte(content), 0o644)
	}
}

// Launcher hands out Drivers in order and counts launches.
type Launcher struct {
	mu       sync.Mutex
	Drivers  []*Driver
	Errs     []error
	Launched int
}

// Launch returns the next queued error, else the next queued driver, else a
// fresh empty Driver.
func (l *Launcher) Launch(context.Context) (browser.Driver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Launched++
	if len(l.Errs) > 0 {
		err := l.Errs[0]
		l.Errs = l.Errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(l.Drivers) > 0 {
		d := l.Drivers[0]
		l.Drivers = l.Drivers[1:]
		return d, nil
	}
	return New(""), nil
}
