package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Init configures the global slog default with the given level and format.
// If w is nil, os.Stderr is used. Format must be "text" or "json".
func Init(level slog.Level, format string, w ...io.Writer) {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}
	slog.SetDefault(slog.New(newHandler(writer, level, format)))
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps a case-insensitive level name to a slog.Level.
// Unknown names fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunLog is the logger for one analysis run: console output plus an
// append-only text log file, with warning/error records counted.
type RunLog struct {
	Logger  *slog.Logger
	Counter *Counter
	Path    string

	file *os.File
	sink io.Writer
}

// OpenRunLog opens (or creates) the log file at path in append mode and
// installs a fan-out logger as the slog default. The file always records
// Debug and above; console honours level and format.
func OpenRunLog(path string, console io.Writer, level slog.Level, format string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	rl := newRunLog(console, f, level, format)
	rl.Path = path
	rl.file = f
	slog.SetDefault(rl.Logger)
	return rl, nil
}

// NewRunLogWithWriters builds a RunLog over arbitrary writers (for testing).
// The slog default is left untouched.
func NewRunLogWithWriters(console, file io.Writer, level slog.Level) *RunLog {
	return newRunLog(console, file, level, "text")
}

func newRunLog(console, file io.Writer, level slog.Level, format string) *RunLog {
	if console == nil {
		console = os.Stderr
	}
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	counter := NewCounter(slogmulti.Fanout(newHandler(console, level, format), fileHandler))
	return &RunLog{Logger: slog.New(counter), Counter: counter, sink: file}
}

// WriteBlock appends preformatted text, such as the run summary, to the log
// file after a blank line. It is not counted and not sent to the console.
func (r *RunLog) WriteBlock(text string) error {
	if r == nil || r.sink == nil {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(r.sink, "\n"+text)
	return err
}

// Close flushes nothing (handlers write through) and closes the log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}
