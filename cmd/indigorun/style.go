package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"indigorun/internal/format"
	"indigorun/internal/report"
)

type theme struct {
	Success lipgloss.Color
	Partial lipgloss.Color
	Error   lipgloss.Color
}

var defaultTheme = theme{
	Success: lipgloss.Color("#00D787"),
	Partial: lipgloss.Color("#FFAF00"),
	Error:   lipgloss.Color("#FF005F"),
}

func (t theme) style(sum report.Summary) lipgloss.Style {
	color := t.Partial
	switch {
	case sum.Attempted > 0 && sum.Failed == 0:
		color = t.Success
	case sum.Succeeded == 0:
		color = t.Error
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// banner is the one-line outcome printed after the summary block.
func banner(sum report.Summary) string {
	mark := "✓"
	if sum.Failed > 0 {
		mark = "✗"
	}
	return fmt.Sprintf("%s %d/%d samples succeeded in %s", mark, sum.Succeeded, sum.Attempted, format.FmtDuration(sum.Elapsed))
}

// printBanner colors the banner only when w is an interactive terminal.
func printBanner(w io.Writer, sum report.Summary) {
	line := banner(sum)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		line = defaultTheme.style(sum).Render(line)
	}
	fmt.Fprintln(w, line)
}
