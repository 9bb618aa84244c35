// Package report accumulates per-sample outcomes, writes the run report file
// and renders the end-of-run summary.
package report

import "time"

// Status is the terminal outcome of one sample.
type Status string

const (
	StatusSuccess           Status = "Success"
	StatusSuccessViaICE     Status = "Success (via ICE)"
	StatusFailedBoth        Status = "Failed (both tools)"
	StatusFailedUnavailable Status = "Failed (ICE unavailable)"
	StatusFailedInterrupted Status = "Failed (interrupted)"
)

// Succeeded is true for the two success variants.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusSuccessViaICE
}

// Fallback usage values.
const (
	FallbackNo        = "No"
	FallbackYes       = "Yes"
	FallbackAttempted = "Attempted"
	FallbackNA        = "N/A"
)

// Tool names.
const (
	ToolIndigo    = "Indigo"
	ToolIndigoICE = "Indigo+ICE"
)

// MaxErrorLen bounds every error text stored in a Record.
const MaxErrorLen = 80

// Record is the outcome of one sample. Immutable once added.
type Record struct {
	Sample        string
	PrimaryTool   string
	Tools         string
	Status        Status
	FallbackUsed  string
	Retried       bool
	Note          string
	PrimaryError  string
	FallbackError string
	EditPercent   float64 // only when Status is StatusSuccessViaICE
	FitQuality    float64
	Error         string
	OutputPath    string
	Timestamp     time.Time
}

// HasMetrics reports whether the ICE numbers are meaningful.
func (r Record) HasMetrics() bool { return r.Status == StatusSuccessViaICE }

// Summary is computed once at the end of a run.
type Summary struct {
	RunID       string
	Attempted   int
	Succeeded   int
	Failed      int
	SuccessRate float64 // percent; 0 when nothing was attempted
	Start       time.Time
	End         time.Time
	Elapsed     time.Duration
	Errors      int
	Warnings    int
	ReportPath  string // empty when the report could not be written
}
