package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/local/pdfsplit/internal/store"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

var statusCmd = &cobra.Command{
	Use:   "status RUN_ID",
	Short: "Show the recorded status of a split or batch run",
	Long: `status reads a run's record and its per-file records back from Redis.
Records are only kept when PDFSPLIT_STATUS_REDIS_URL is set, and expire
after PDFSPLIT_STATUS_TTL.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the run as JSON")
	rootCmd.AddCommand(statusCmd)
}

// runReport is the JSON form of a stored run.
type runReport struct {
	RunID string             `json:"run_id"`
	Run   store.Status       `json:"run"`
	Files []store.FileRecord `json:"files"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if cfg.Status.RedisURL == "" {
		return usageError(errors.New("run status needs PDFSPLIT_STATUS_REDIS_URL"))
	}
	rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.KeyPrefix, cfg.Status.TTL)
	if err != nil {
		return &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "status", Err: err}
	}
	defer rs.Close()

	st, files, ok, err := rs.Run(cmd.Context(), runID)
	if err != nil {
		return &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "status", Path: runID, Err: err}
	}
	if !ok {
		return &pdfsplit.Error{Kind: pdfsplit.KindNotFound, Op: "status", Path: runID, Err: errors.New("unknown or expired run")}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runReport{RunID: runID, Run: st, Files: files})
	}
	printRun(cmd.OutOrStdout(), runID, st, files)
	return nil
}

func printRun(w io.Writer, runID string, st store.Status, files []store.FileRecord) {
	fmt.Fprintf(w, "run      %s\n", runID)
	fmt.Fprintf(w, "status   %s (%d%%)\n", st.Status, st.Progress)
	if st.Message != "" {
		fmt.Fprintf(w, "message  %s\n", st.Message)
	}
	if st.Start != nil {
		fmt.Fprintf(w, "started  %s\n", st.Start.Format(time.RFC3339))
	}
	if st.Start != nil && st.End != nil {
		fmt.Fprintf(w, "took     %s\n", st.End.Sub(*st.Start).Round(time.Millisecond))
	}
	for _, f := range files {
		if f.Status == "failed" {
			fmt.Fprintf(w, "FAILED %s (%s): %s\n", f.Input, f.Kind, f.Error)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", f.Status, f.Input)
		for _, out := range f.Outputs {
			fmt.Fprintf(w, "  %s\n", out)
		}
	}
}
