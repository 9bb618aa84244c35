package ice

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

//go:embed bridge.py
var bridgeScript string

const (
	resultPrefix = "ICE_RESULT:"
	errorPrefix  = "ICE_ERROR:"
)

// ErrNoResult is returned when the analysis exited cleanly without printing
// a result line.
var ErrNoResult = errors.New("no result line in ICE output")

// Request is one single-sample ICE analysis.
type Request struct {
	ControlPath  string `json:"control_path"`
	SamplePath   string `json:"sample_path"`
	OutputPrefix string `json:"base_outputname"`
	Guide        string `json:"guide"`
	Verbose      bool   `json:"verbose"`
}

// Runner executes ICE analyses. Run returns the raw result document, which
// ParseResult understands.
type Runner interface {
	Probe(ctx context.Context) error
	Run(ctx context.Context, req Request) (any, error)
}

// RunError carries the message the analysis reported on failure.
type RunError struct {
	Msg string
	Err error
}

func (e *RunError) Error() string { return e.Msg }
func (e *RunError) Unwrap() error { return e.Err }

// ExecRunner runs ICE in a Python interpreter with SourcePath on PYTHONPATH.
type ExecRunner struct {
	Python     string
	SourcePath string
	Timeout    time.Duration // per analysis; 0 means none
}

// Probe checks that the ice.analysis module imports.
func (r *ExecRunner) Probe(ctx context.Context) error {
	var stderr bytes.Buffer
	cmd := r.command(ctx, "-c", "import ice.analysis")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &RunError{Msg: "import ice.analysis: " + lastLine(stderr.String(), err), Err: err}
	}
	return nil
}

// Run pipes req to the bridge script and returns the JSON result bytes.
func (r *ExecRunner) Run(ctx context.Context, req Request) (any, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	in, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, "-c", bridgeScript)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &RunError{Msg: ctx.Err().Error(), Err: ctx.Err()}
		}
		return nil, &RunError{Msg: lastLine(stderr.String(), err), Err: err}
	}

	sc := bufio.NewScanner(&stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if rest, ok := strings.CutPrefix(sc.Text(), resultPrefix); ok {
			return []byte(strings.TrimSpace(rest)), nil
		}
	}
	return nil, ErrNoResult
}

func (r *ExecRunner) command(ctx context.Context, args ...string) *exec.Cmd {
	python := r.Python
	if python == "" {
		python = "python3"
	}
	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Env = os.Environ()
	if r.SourcePath != "" {
		pp := r.SourcePath
		if cur := os.Getenv("PYTHONPATH"); cur != "" {
			pp += string(filepath.ListSeparator) + cur
		}
		cmd.Env = append(cmd.Env, "PYTHONPATH="+pp)
	}
	return cmd
}

// lastLine prefers the bridge's error line, then the last non-empty stderr
// line, then err itself.
func lastLine(stderr string, err error) string {
	var last string
	for _, l := range strings.Split(stderr, "\n") {
		l = strings.TrimSpace(l)
		if msg, ok := strings.CutPrefix(l, errorPrefix); ok {
			return strings.TrimSpace(msg)
		}
		if l != "" {
			last = l
		}
	}
	if last != "" {
		return last
	}
	return err.Error()
}
