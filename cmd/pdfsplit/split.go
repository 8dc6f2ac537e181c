package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/local/pdfsplit/internal/orchestrator"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

var splitCmd = &cobra.Command{
	Use:   "split INPUT",
	Short: "Split one PDF into chunks of at most --max-pages pages",
	Long: `Split opens INPUT, cuts it into consecutive chunks of at most --max-pages
pages and writes one PDF per chunk. Produced paths are printed one per line.

Pattern placeholders: {stem} {i} {i0} {start} {end}. Numeric placeholders take
a width, e.g. {i:03d}. Use {{ and }} for literal braces. A .pdf suffix is added
when the pattern does not end in one.

Nothing is written when a chunk fails; chunks already written are removed.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runSplit,
}

func init() {
	addSplitFlags(splitCmd)
	rootCmd.AddCommand(splitCmd)
}

// addSplitFlags registers the flags shared by split and batch.
func addSplitFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-pages", pdfsplit.DefaultMaxPages, "maximum pages per chunk")
	cmd.Flags().StringP("out", "o", "", "output directory or s3://bucket/prefix (default: the input's directory)")
	cmd.Flags().String("pattern", pdfsplit.DefaultPattern, "chunk file name pattern")
	cmd.Flags().String("password", "", "password for encrypted inputs (or PDFSPLIT_PASSWORD)")
	cmd.Flags().Bool("overwrite", false, "replace existing chunk files")
	cmd.Flags().Bool("no-metadata", false, "do not copy the document information (title, author, ...) into chunks")
	cmd.Flags().Bool("verify", false, "re-open every chunk with MuPDF and check its page count")
}

// requestFromFlags reads the split flags through viper so config file and
// PDFSPLIT_* values apply when a flag is not given.
func requestFromFlags() orchestrator.Request {
	return orchestrator.Request{
		Options: pdfsplit.Options{
			MaxPages:     viper.GetInt("max-pages"),
			OutputDir:    viper.GetString("out"),
			Pattern:      viper.GetString("pattern"),
			Password:     viper.GetString("password"),
			Overwrite:    viper.GetBool("overwrite"),
			KeepMetadata: !viper.GetBool("no-metadata"),
		},
		Verify: viper.GetBool("verify"),
	}
}

func runSplit(cmd *cobra.Command, args []string) error {
	orch, release := newOrchestrator()
	defer release()

	paths, err := orch.RunSplit(cmd.Context(), args[0], requestFromFlags())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}
