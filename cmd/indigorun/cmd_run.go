package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"indigorun/internal/logging"
	"indigorun/internal/wiring"
)

var runFlags configFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze every sample in the input folder",
	Long: `Analyze each chromatogram in the input folder against the wild-type
reference with INDIGO. Samples INDIGO cannot analyze are sent to ICE with the
fallback target sequence. Results, an append-only analysis_log.txt and a
hybrid_analysis_report_<timestamp>.csv are written next to the output folder.

Interrupting the run (Ctrl-C) stops after the current step, closes the
browser and still writes the report for the samples processed so far.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runFlags.bind(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := runFlags.resolve(cmd, os.Getenv)
	if err != nil {
		return err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := wiring.Run(ctx, cfg, wiring.Deps{
		Console: cmd.ErrOrStderr(),
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	printBanner(cmd.OutOrStdout(), res.Summary)
	if res.Interrupted {
		fmt.Fprintln(cmd.ErrOrStderr(), "Analysis interrupted by user")
	}
	return nil
}
