// Package main is the entry point for the pdfsplit CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfgpkg "github.com/local/pdfsplit/internal/config"
	logpkg "github.com/local/pdfsplit/internal/logger"
	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/orchestrator"
	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/source"
	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/internal/store"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded from the environment (and .env) before every command.
var cfg cfgpkg.Config

var rootCmd = &cobra.Command{
	Use:   "pdfsplit",
	Short: "Split PDF documents into chunks of at most N pages",
	Long: `pdfsplit cuts a PDF into consecutive chunks of at most --max-pages pages and
writes each chunk as a new compressed PDF named from a pattern such as
"{stem}_part_{i:02d}.pdf".

Inputs may be local paths, file://, http(s):// or s3:// references. Output
may be a directory or an s3://bucket/prefix.

Flag defaults can be set in pdfsplit.yaml or with PDFSPLIT_* variables,
e.g. PDFSPLIT_MAX_PAGES=20.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfgpkg.LoadDotEnv()
		cfg = cfgpkg.FromEnv()
		if lvl := viper.GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if p := viper.GetString("metrics-file"); p != "" {
			cfg.Metrics.TextfilePath = p
		}

		if err := logpkg.Init(logpkg.Options{
			Level:         cfg.Logging.Level,
			Pretty:        cfg.Logging.Pretty,
			File:          cfg.Logging.File,
			MaxSizeMB:     cfg.Logging.MaxSizeMB,
			MaxBackups:    cfg.Logging.MaxBackups,
			MaxAgeDays:    cfg.Logging.MaxAgeDays,
			Compress:      cfg.Logging.Compress,
			Out:           cmd.ErrOrStderr(),
			Fields:        map[string]string{"command": cmd.Name(), "version": version},
			SendToAxiom:   cfg.Axiom.Send && cfg.Axiom.APIKey != "",
			AxiomAPIKey:   cfg.Axiom.APIKey,
			AxiomOrgID:    cfg.Axiom.OrgID,
			AxiomDataset:  cfg.Axiom.Dataset,
			AxiomFlush:    cfg.Axiom.FlushInterval,
			AxiomMinLevel: cfg.Axiom.MinLevel,
		}); err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debug().Str("file", used).Msg("using config file")
		}

		if n := orchestrator.CleanupTemps(cfg.Fetch.TempMaxAge); n > 0 {
			log.Debug().Int("removed", n).Msg("removed stale temp dirs")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfsplit.yaml or ~/.config/pdfsplit/pdfsplit.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this textfile on exit")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfsplit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfsplit"))
		}
	}

	viper.SetEnvPrefix("PDFSPLIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
	}
}

// newOrchestrator wires the optional backends from cfg. The returned func
// releases them.
func newOrchestrator() (*orchestrator.Orchestrator, func()) {
	deps := orchestrator.Dependencies{
		Splitter: pdfsplit.New(nil),
		Resolver: &source.Fetcher{
			HTTP: &http.Client{Timeout: cfg.Fetch.HTTPTimeout},
			NewS3: func(ctx context.Context) (source.S3Downloader, error) {
				c, err := newS3Client(ctx)
				if err != nil {
					return nil, err
				}
				return c, nil
			},
		},
		NewUploader: func(ctx context.Context) (orchestrator.Uploader, error) {
			c, err := newS3Client(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Verifier: pdftest.New(),
	}

	release := func() {}
	if cfg.Status.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Status.KeyPrefix, cfg.Status.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("run status disabled")
		} else {
			deps.Status = orchestrator.NewStatusAdapter(rs)
			release = func() { _ = rs.Close() }
		}
	}
	return orchestrator.New(deps), release
}

func newS3Client(ctx context.Context) (*storage.S3Client, error) {
	return storage.NewS3Client(ctx, storage.Options{
		Region:            cfg.Storage.Region,
		PartSizeMB:        cfg.Storage.UploadPartSizeMB,
		UploadConcurrency: cfg.Storage.UploadConcurrency,
	})
}

// finish flushes what the run produced besides its output files.
func finish() {
	if p := cfg.Metrics.TextfilePath; p != "" {
		if err := metrics.WriteTextfile(p); err != nil {
			log.Warn().Err(err).Str("file", p).Msg("failed to write metrics")
		}
	}
	logpkg.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	finish()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
