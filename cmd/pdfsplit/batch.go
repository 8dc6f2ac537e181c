package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/local/pdfsplit/internal/orchestrator"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

var batchCmd = &cobra.Command{
	Use:   "batch PATH...",
	Short: "Split every PDF found under the given paths",
	Long: `Batch splits each file matching --glob under the given directories (and any
files named directly). Files are processed one at a time; a failing file is
reported and the rest still run.

Produced paths go to stdout. Each failure is reported on stderr as
"FAILED <file> (<kind>): <message>" and the command exits with status 1.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runBatch,
}

func init() {
	addSplitFlags(batchCmd)
	batchCmd.Flags().String("glob", pdfsplit.DefaultGlob, "file name pattern matched in directories")
	batchCmd.Flags().Bool("recursive", true, "descend into subdirectories")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	orch, release := newOrchestrator()
	defer release()

	outcomes, err := orch.RunBatch(cmd.Context(), args, orchestrator.BatchRequest{
		Request:   requestFromFlags(),
		Glob:      viper.GetString("glob"),
		Recursive: viper.GetBool("recursive"),
	})
	if err != nil {
		return err
	}

	failed := reportBatch(cmd.OutOrStdout(), cmd.ErrOrStderr(), outcomes)
	log.Info().Int("files", len(outcomes)).Int("failed", failed).Msg("batch complete")
	if failed > 0 {
		return &batchError{Failed: failed, Total: len(outcomes)}
	}
	return nil
}

// reportBatch prints produced paths to out and one FAILED line per failure
// to errOut. It returns the failure count.
func reportBatch(out, errOut io.Writer, outcomes []pdfsplit.Outcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
			fmt.Fprintf(errOut, "FAILED %s (%s): %v\n", o.Input, pdfsplit.KindOf(o.Err), o.Err)
			continue
		}
		for _, p := range o.Outputs {
			fmt.Fprintln(out, p)
		}
	}
	return failed
}
