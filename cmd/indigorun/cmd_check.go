package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/spf13/cobra"

	"indigorun/internal/format"
	"indigorun/internal/ice"
	"indigorun/internal/logging"
	"indigorun/internal/prereq"
	"indigorun/internal/wiring"
)

var checkFlags configFlags

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate inputs, Chrome and ICE without running an analysis",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkFlags.bind(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := checkFlags.resolve(cmd, os.Getenv)
	if err != nil {
		return err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	res, err := prereq.Check(ctx, prereq.Options{
		InputDir:      cfg.InputDir,
		Extension:     cfg.Extension,
		Reference:     cfg.Reference,
		OutputDirs:    []string{cfg.OutputDir, cfg.ResolvedFallbackOutput(), cfg.ResolvedReportDir()},
		RequireChrome: true,
		ChromePath:    cfg.Browser.ChromePath,
	})
	if err != nil {
		return err
	}

	iceStatus := "disabled"
	if !cfg.Fallback.Disabled {
		fb := ice.New(ice.Options{Runner: wiring.ExecRunner(cfg)})
		iceStatus = "unavailable"
		if fb.Probe(ctx) {
			iceStatus = "available"
		}
	}

	out := cmd.OutOrStdout()
	tb := format.NewTable(format.ASCII)
	tb.Header("#", "Sample", "ABIF header")
	for i, item := range res.Items {
		tb.Row(i+1, item.Name, format.BoolMark(!slices.Contains(res.Suspect, item.Name)))
	}
	fmt.Fprintln(out, tb.String())
	fmt.Fprintf(out, "Chrome: %s\n", res.Chrome)
	fmt.Fprintf(out, "ICE: %s\n", iceStatus)
	fmt.Fprintf(out, "Guides: %d, fallback target set: %s\n", len(cfg.Guides), format.YesNo(cfg.FallbackTarget != ""))
	return nil
}
