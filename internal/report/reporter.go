package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"indigorun/internal/format"
	"indigorun/internal/logging"
)

// TimeLayout is used for start and end timestamps in the summary.
const TimeLayout = "2006-01-02 15:04:05"

// Counts exposes the number of warning and error log records of the run.
// *logging.Counter satisfies it.
type Counts interface {
	Errors() int
	Warnings() int
}

// Reporter collects exactly one Record per sample.
type Reporter struct {
	mu      sync.Mutex
	log     *slog.Logger
	counts  Counts
	runID   string
	total   int
	start   time.Time
	records []Record
}

// New returns a Reporter. counts may be nil.
func New(log *slog.Logger, counts Counts) *Reporter {
	if log == nil {
		log = logging.New("report")
	}
	return &Reporter{log: log, counts: counts, runID: uuid.NewString()}
}

// RunID identifies this run in logs and the summary.
func (r *Reporter) RunID() string { return r.runID }

// Begin starts the run clock and logs the banner.
func (r *Reporter) Begin(total int, now time.Time) {
	r.mu.Lock()
	r.total = total
	r.start = now
	r.mu.Unlock()
	r.log.Info("analysis run started",
		slog.String("run_id", r.runID),
		slog.Int("total", total),
		slog.String("start", now.Format(TimeLayout)))
}

// Add appends rec, clipping its error texts.
func (r *Reporter) Add(rec Record) {
	rec.PrimaryError = format.Clip(rec.PrimaryError, MaxErrorLen)
	rec.FallbackError = format.Clip(rec.FallbackError, MaxErrorLen)
	rec.Error = format.Clip(rec.Error, MaxErrorLen)
	if rec.PrimaryTool == "" {
		rec.PrimaryTool = ToolIndigo
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	n := len(r.records)
	r.mu.Unlock()

	attrs := []any{
		slog.String("sample", rec.Sample),
		slog.String("status", string(rec.Status)),
		slog.String("progress", fmt.Sprintf("%d/%d", n, r.total)),
	}
	if rec.Status.Succeeded() {
		r.log.Info("sample recorded", attrs...)
	} else {
		r.log.Info("sample recorded", append(attrs, slog.String("error", rec.Error))...)
	}
}

// Records returns a copy of the records in insertion order.
func (r *Reporter) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Finish computes the summary. ReportPath is left for the caller.
func (r *Reporter) Finish(now time.Time) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Summary{
		RunID:     r.runID,
		Attempted: len(r.records),
		Start:     r.start,
		End:       now,
		Elapsed:   now.Sub(r.start),
	}
	for _, rec := range r.records {
		if rec.Status.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	if s.Attempted > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Attempted) * 100
	}
	if r.counts != nil {
		s.Errors = r.counts.Errors()
		s.Warnings = r.counts.Warnings()
	}
	return s
}

// ReportName is the report file name for a run finished at now.
func ReportName(now time.Time) string {
	return "hybrid_analysis_report_" + now.Format("20060102_150405") + ".csv"
}

var reportColumns = []string{
	"Sample", "Primary_Tool", "Tools", "Status", "Fallback_Used", "Retried", "Note",
	"Indigo_Error", "ICE_Error", "ICE_Indel_%", "ICE_R2", "Error", "Output", "Timestamp",
}

// WriteTable writes one CSV row per record into dir and returns the path.
func (r *Reporter) WriteTable(dir string, now time.Time) (string, error) {
	tb := format.NewTable(format.CSV)
	tb.Header(reportColumns...)
	for _, rec := range r.Records() {
		edit, fit := "", ""
		if rec.HasMetrics() {
			edit = fmt.Sprintf("%.2f", rec.EditPercent)
			fit = fmt.Sprintf("%.4f", rec.FitQuality)
		}
		ts := ""
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp.Format(TimeLayout)
		}
		tb.Row(rec.Sample, rec.PrimaryTool, rec.Tools, string(rec.Status), rec.FallbackUsed,
			format.YesNo(rec.Retried), rec.Note, rec.PrimaryError, rec.FallbackError,
			edit, fit, rec.Error, rec.OutputPath, ts)
	}

	path := filepath.Join(dir, ReportName(now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(tb.String()+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// FormatSummary renders the end-of-run summary block.
func FormatSummary(s Summary) string {
	rule := strings.Repeat("=", 80)
	report := s.ReportPath
	if report == "" {
		report = "Unable to save"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nANALYSIS COMPLETE\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total files analyzed: %d\n", s.Attempted)
	fmt.Fprintf(&b, "Successfully processed: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "Success rate: %s\n", format.FmtPercent(s.Succeeded, s.Attempted))
	fmt.Fprintf(&b, "Start time: %s\n", s.Start.Format(TimeLayout))
	fmt.Fprintf(&b, "End time: %s\n", s.End.Format(TimeLayout))
	fmt.Fprintf(&b, "Total time: %s\n", format.FmtElapsed(s.Elapsed))
	fmt.Fprintf(&b, "Report: %s\n", report)
	if s.Errors > 0 || s.Warnings > 0 {
		fmt.Fprintf(&b, "\nIssues Encountered:\n  Errors: %d\n  Warnings: %d\n", s.Errors, s.Warnings)
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// FormatTable renders the per-sample console table.
func FormatTable(records []Record) string {
	tb := format.NewTable(format.ASCII)
	tb.Header("Sample", "Status", "Fallback", "Indel %", "R²", "Error")
	tb.Columns(
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, MaxWidth: 50},
	)
	ok := 0
	for _, rec := range records {
		edit, fit := "", ""
		if rec.HasMetrics() {
			edit = fmt.Sprintf("%.2f", rec.EditPercent)
			fit = fmt.Sprintf("%.4f", rec.FitQuality)
		}
		if rec.Status.Succeeded() {
			ok++
		}
		tb.Row(rec.Sample, string(rec.Status), rec.FallbackUsed, edit, fit, format.Truncate(rec.Error, 50))
	}
	tb.Footer("", fmt.Sprintf("%d/%d", ok, tb.Len()), "", "", "", "")
	return tb.String()
}
