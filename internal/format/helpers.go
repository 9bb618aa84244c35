package format

import (
	"fmt"
	"time"
)

// FmtDuration formats a duration as "Xm Ys" or "Ys".
func FmtDuration(d time.Duration) string {
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// FmtElapsed formats a run duration as "12.34 seconds (0.2 minutes)".
func FmtElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds (%.1f minutes)", d.Seconds(), d.Minutes())
}

// FmtPercent formats part/total as a percentage with one decimal.
// A zero total yields "0.0%".
func FmtPercent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// Clip cuts s to at most maxLen runes without adding a marker.
// Error texts recorded in reports are clipped this way.
func Clip(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}

// YesNo returns "Yes" for true and "No" for false.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
