package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"indigorun/internal/highlight"
)

var highlightFlags struct {
	input   string
	output  string
	guides  []string
	palette []string
}

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Highlight guide sequences in a saved INDIGO result page",
	Long: `Wrap every case-insensitive occurrence of each guide sequence in a coloured
span. Colours cycle through the palette by guide order.

Usage:
  indigorun highlight -i s01_results.html -o s01_marked.html --guide CAGCAGCTGG
  indigorun highlight -i page.html --guide AAA --guide CCC > marked.html`,
	Args: cobra.NoArgs,
	RunE: runHighlight,
}

func init() {
	f := highlightCmd.Flags()
	f.StringVarP(&highlightFlags.input, "input", "i", "", "HTML file to highlight (required)")
	f.StringVarP(&highlightFlags.output, "output", "o", "", "Output file (default: stdout)")
	f.StringArrayVar(&highlightFlags.guides, "guide", nil, "Guide sequence (repeatable)")
	f.StringSliceVar(&highlightFlags.palette, "palette", highlight.DefaultPalette, "Highlight colours")
	_ = highlightCmd.MarkFlagRequired("input")
}

func runHighlight(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(highlightFlags.input)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	h := highlight.New()
	h.Palette = highlightFlags.palette
	out := h.Highlight(string(data), highlightFlags.guides)

	if highlightFlags.output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(highlightFlags.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}
