// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and log messages.
// Keep raw codes for report columns, map keys, and equality comparisons.
package display

import "strings"

// --- Primary tool failures ---

var primaryKinds = map[string]string{
	"timeout":       "Timed out",
	"stale-element": "Stale element",
	"verify-failed": "Upload not confirmed",
	"service-error": "INDIGO reported an error",
	"session-lost":  "Browser session lost",
	"io":            "File error",
	"unexpected":    "Browser error",
}

// PrimaryKind returns the human-readable name for an INDIGO failure code.
// Unknown codes are returned as-is.
func PrimaryKind(code string) string {
	if name, ok := primaryKinds[code]; ok {
		return name
	}
	return code
}

// --- Fallback tool failures ---

var fallbackKinds = map[string]string{
	"unavailable":      "ICE not installed",
	"invalid-target":   "Invalid target sequence",
	"not-in-reference": "Target not in wildtype",
	"file-not-found":   "ICE could not read a file",
	"missing-input":    "Input file missing",
	"parse":            "Unreadable ICE result",
	"io":               "File error",
	"failed":           "ICE analysis failed",
}

// FallbackKind returns the human-readable name for an ICE failure code.
func FallbackKind(code string) string {
	if name, ok := fallbackKinds[code]; ok {
		return name
	}
	return code
}

// WithCode returns "Human Name (code)" for dual-audience contexts.
func WithCode(name, code string) string {
	if name == code {
		return code
	}
	return name + " (" + code + ")"
}

// --- Sample states ---

var states = map[string]string{
	"not-started":          "Queued",
	"primary-attempted":    "INDIGO",
	"primary-retried":      "INDIGO (restarted browser)",
	"fallback-attempted":   "ICE",
	"fallback-unavailable": "ICE unavailable",
	"succeeded":            "Done",
	"failed":               "Failed",
}

// State returns the human-readable name for a sample state code.
func State(code string) string {
	if name, ok := states[code]; ok {
		return name
	}
	return code
}

// StatePath converts a slice of state codes to a human-readable path.
// ["not-started", "primary-attempted", "succeeded"] -> "Queued → INDIGO → Done"
func StatePath(codes []string) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = State(c)
	}
	return strings.Join(names, " → ")
}
