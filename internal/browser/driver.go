// Package browser defines the browser automation capability used by the
// primary analysis invoker, a chromedp implementation and the owned session
// handle the supervisor swaps when a browser dies.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver errors. Implementations wrap one of these so callers can classify
// failures with errors.Is.
var (
	ErrTimeout      = errors.New("browser: timed out")
	ErrStaleElement = errors.New("browser: stale element reference")
	ErrSessionLost  = errors.New("browser: session lost")
)

// By selects how a Selector's Query is interpreted.
type By int

const (
	ByID By = iota
	ByQuery
	ByXPath
)

// Selector locates one element on the page.
type Selector struct {
	Query string
	By    By
}

// ID selects an element by its id attribute.
func ID(id string) Selector { return Selector{Query: id, By: ByID} }

// CSS selects an element by CSS selector.
func CSS(q string) Selector { return Selector{Query: q, By: ByQuery} }

// XPath selects an element by XPath expression.
func XPath(q string) Selector { return Selector{Query: q, By: ByXPath} }

// LinkText selects an anchor whose normalized text equals text.
func LinkText(text string) Selector {
	return XPath(fmt.Sprintf(`//a[normalize-space(.)=%q]`, text))
}

func (s Selector) String() string {
	switch s.By {
	case ByID:
		return "#" + s.Query
	default:
		return s.Query
	}
}

// Driver is one live browser tab. All methods block and honour ctx.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitPresent waits up to timeout for sel to exist in the DOM.
	WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) error
	// Upload sets the file of the <input type=file> at sel.
	Upload(ctx context.Context, sel Selector, path string) error
	Value(ctx context.Context, sel Selector) (string, error)
	Click(ctx context.Context, sel Selector) error
	// HTML returns the current document markup.
	HTML(ctx context.Context) (string, error)
	// DownloadDir is where browser downloads land.
	DownloadDir() string
	Close() error
}

// Launcher starts a fresh Driver.
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Driver, error)

func (f LauncherFunc) Launch(ctx context.Context) (Driver, error) { return f(ctx) }
