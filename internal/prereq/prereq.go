// Package prereq validates the run inputs before any browser is started.
package prereq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"indigorun/internal/abif"
	"indigorun/internal/logging"
	"indigorun/internal/sample"
)

// ChromeNames are tried on PATH when no browser path is configured.
var ChromeNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

// Error lists every failed prerequisite. It is fatal for the run.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "prerequisites not met: " + strings.Join(e.Problems, "; ")
}

// IsPrerequisite reports whether err is (or wraps) an *Error.
func IsPrerequisite(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Options describes what to check.
type Options struct {
	InputDir   string
	Extension  string
	Reference  string
	OutputDirs []string // created when missing

	// RequireChrome enables the browser binary check.
	RequireChrome bool
	ChromePath    string
	LookPath      func(string) (string, error)

	Parallel int // header scan workers; default 4
	Log      *slog.Logger
}

// Result is what a successful check discovered.
type Result struct {
	Items   []sample.Item
	Chrome  string   // resolved browser binary, empty unless RequireChrome
	Suspect []string // input files without a readable ABIF header
}

// Check validates inputs, resolves the browser, creates output directories
// and enumerates samples. All problems are collected into one *Error.
func Check(ctx context.Context, o Options) (Result, error) {
	log := o.Log
	if log == nil {
		log = logging.New("prereq")
	}
	var res Result
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	inputOK := false
	if fi, err := os.Stat(o.InputDir); err != nil {
		fail("input folder not found: %s", o.InputDir)
	} else if !fi.IsDir() {
		fail("input path is not a directory: %s", o.InputDir)
	} else {
		inputOK = true
	}

	if fi, err := os.Stat(o.Reference); err != nil {
		fail("wildtype file not found: %s", o.Reference)
	} else if !fi.Mode().IsRegular() {
		fail("wildtype path is not a file: %s", o.Reference)
	} else if err := abif.Validate(o.Reference); err != nil {
		fail("wildtype file is not a valid chromatogram: %s: %v", o.Reference, err)
	}

	if o.RequireChrome {
		chrome, err := findChrome(o.ChromePath, o.LookPath)
		if err != nil {
			fail("%v", err)
		}
		res.Chrome = chrome
	}

	for _, dir := range o.OutputDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail("cannot create output directory %s: %v", dir, err)
		}
	}

	if inputOK {
		items, err := sample.Discover(o.InputDir, o.Extension)
		switch {
		case err != nil:
			fail("%v", err)
		case len(items) == 0:
			ext := o.Extension
			if ext == "" {
				ext = sample.DefaultExt
			}
			fail("no %s files found in %s", ext, o.InputDir)
		default:
			res.Items = items
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			log.Error("prerequisite failed", slog.String("problem", p))
		}
		return Result{}, &Error{Problems: problems}
	}

	suspect, err := scanHeaders(ctx, res.Items, o.Parallel)
	if err != nil {
		return Result{}, err
	}
	for _, name := range suspect {
		log.Warn("input file has no valid ABIF header", slog.String("sample", name))
	}
	res.Suspect = suspect
	log.Info("prerequisites ok", slog.Int("samples", len(res.Items)))
	return res, nil
}

// scanHeaders validates every item concurrently and returns the names of the
// ones that failed, in item order.
func scanHeaders(ctx context.Context, items []sample.Item, parallel int) ([]string, error) {
	if parallel <= 0 {
		parallel = 4
	}
	bad := make([]bool, len(items))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if abif.Validate(item.Path) != nil {
				mu.Lock()
				bad[i] = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var names []string
	for i, b := range bad {
		if b {
			names = append(names, items[i].Name)
		}
	}
	return names, nil
}

func findChrome(configured string, lookPath func(string) (string, error)) (string, error) {
	if configured != "" {
		fi, err := os.Stat(configured)
		if err != nil || fi.IsDir() {
			return "", fmt.Errorf("chrome binary not found: %s", configured)
		}
		return configured, nil
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range ChromeNames {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("chrome binary not found on PATH (tried %s)", strings.Join(ChromeNames, ", "))
}
