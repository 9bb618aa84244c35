package indigo

import (
	"regexp"
	"strings"
)

// Marker is a failure message INDIGO embeds in its result page.
// When Capture is set and matches, its first group is the reported detail;
// otherwise Text itself is.
type Marker struct {
	Text    string
	Capture *regexp.Regexp
}

// Markers are evaluated in order; the generic ones come last.
var Markers = []Marker{
	{Text: "Error in running Indigo:", Capture: regexp.MustCompile(`Error in running Indigo: ([^<]+)`)},
	{Text: "Alignment of trace to reference failed"},
	{Text: "execution halted"},
	{Text: "package:stats"},
}

// Scan returns the detail of the first marker found in page.
func Scan(page string) (string, bool) {
	for _, m := range Markers {
		if !strings.Contains(page, m.Text) {
			continue
		}
		if m.Capture != nil {
			if sub := m.Capture.FindStringSubmatch(page); len(sub) > 1 {
				return sub[1], true
			}
		}
		return m.Text, true
	}
	return "", false
}

func hasMarker(page string) bool {
	_, ok := Scan(page)
	return ok
}
