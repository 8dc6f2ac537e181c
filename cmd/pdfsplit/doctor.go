package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/statuscheck"
	"github.com/local/pdfsplit/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the PDF engines and the configured Redis and S3 backends",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts := statuscheck.Options{Verifier: pdftest.New(), S3Bucket: cfg.Storage.Bucket}

	if cfg.Status.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.KeyPrefix, cfg.Status.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable")
			opts.Redis = failingPinger{err: err}
		} else {
			defer rs.Close()
			opts.Redis = rs
		}
	}
	if cfg.Storage.Bucket != "" {
		c, err := newS3Client(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("s3 unavailable")
		} else {
			opts.S3 = c
		}
	}

	summary := statuscheck.New(opts).Summary(ctx)
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary)
	}

	if !summary.PDFEngine.OK {
		return fmt.Errorf("pdf engine check failed: %s", summary.PDFEngine.Message)
	}
	return nil
}

// failingPinger reports a connection error found while wiring the store.
type failingPinger struct{ err error }

func (p failingPinger) Ping(_ context.Context) error { return p.err }

func printSummary(w io.Writer, s statuscheck.Summary) {
	line := func(name string, st statuscheck.Status) {
		state := "ok"
		if !st.OK {
			state = "unavailable"
		}
		fmt.Fprintf(w, "%-8s %-12s %s\n", name, state, st.Message)
	}
	line("pdfcpu", s.PDFEngine)
	line("mupdf", s.MuPDF)
	line("redis", s.Redis)
	line("s3", s.S3)
}
