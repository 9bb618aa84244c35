package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "indigorun",
	Short: "Batch CRISPR editing analysis with INDIGO and ICE fallback",
	Long: "indigorun uploads each Sanger chromatogram with a wild-type reference to the\n" +
		"INDIGO web tool, falls back to local ICE analysis when INDIGO fails, and\n" +
		"writes a per-sample report.",
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.Version = version
}
