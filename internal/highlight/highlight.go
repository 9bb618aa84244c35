// Package highlight marks guide sequences inside result HTML.
package highlight

import (
	"fmt"
	"log/slog"
	"regexp"

	"indigorun/internal/logging"
)

// DefaultPalette is cycled by sequence index.
var DefaultPalette = []string{"cyan", "yellow"}

// Highlighter wraps every case-insensitive occurrence of each sequence in a
// coloured span. Sequences are applied in order against the progressively
// modified text, so a later sequence may match inside markup inserted for an
// earlier one.
type Highlighter struct {
	Palette []string
	Log     *slog.Logger
}

// New returns a Highlighter with the default palette and component logger.
func New() *Highlighter {
	return &Highlighter{Palette: DefaultPalette, Log: logging.New("highlight")}
}

// Highlight is New().Highlight.
func Highlight(html string, sequences []string) string {
	return New().Highlight(html, sequences)
}

// Highlight never fails: on any internal error the input is returned as is.
func (h *Highlighter) Highlight(html string, sequences []string) (out string) {
	log := h.logger()
	if len(sequences) == 0 {
		log.Warn("no guide sequences provided for highlighting")
		return html
	}
	palette := h.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn("highlighting failed, keeping original content", slog.Any("panic", r))
			out = html
		}
	}()

	out = html
	for i, seq := range sequences {
		if seq == "" {
			log.Warn("empty guide sequence", slog.Int("index", i))
			continue
		}
		color := palette[i%len(palette)]
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(seq))
		out = re.ReplaceAllStringFunc(out, func(m string) string {
			return Span(color, m)
		})
	}
	return out
}

// Span returns the marker markup for text in color.
func Span(color, text string) string {
	return fmt.Sprintf(`<span style="background-color: %s; font-weight: bold;">%s</span>`, color, text)
}

func (h *Highlighter) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return logging.New("highlight")
}
