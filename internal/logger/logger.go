// Package logger configures the process-wide zerolog logger for the CLI:
// console output on stderr, optional rotated file output and optional
// forwarding to Axiom.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console output; defaults to stderr so stdout stays free for produced paths.
	Out io.Writer

	// Service names the emitter in every event; defaults to "pdfsplit".
	Service string
	// Fields are attached to every event, e.g. the command being run.
	Fields map[string]string

	// Axiom
	SendToAxiom   bool
	AxiomAPIKey   string
	AxiomOrgID    string
	AxiomDataset  string
	AxiomFlush    time.Duration
	AxiomMinLevel string // default "info"
}

var (
	global zerolog.Logger
	sink   *axiomSink
)

// Init replaces the global logger. Calling it again closes the previous Axiom sink.
func Init(opts Options) error {
	Close()

	if opts.Service == "" {
		opts.Service = "pdfsplit"
	}
	console := opts.Out
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	} else {
		writers = append(writers, console)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}
	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		s, err := newAxiomSink(axiomConfig{
			Token:    opts.AxiomAPIKey,
			OrgID:    opts.AxiomOrgID,
			Dataset:  opts.AxiomDataset,
			Flush:    opts.AxiomFlush,
			MinLevel: parseLevel(opts.AxiomMinLevel, zerolog.InfoLevel),
			Service:  opts.Service,
		})
		if err != nil {
			// not fatal: the run still logs locally
			fmt.Fprintf(console, "Axiom disabled: %v\n", err)
		} else {
			sink = s
			writers = append(writers, s)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	ctx := zerolog.New(io.MultiWriter(writers...)).
		Level(parseLevel(opts.Level, zerolog.InfoLevel)).
		With().
		Timestamp()
	keys := make([]string, 0, len(opts.Fields))
	for k := range opts.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx = ctx.Str(k, opts.Fields[k])
	}
	global = ctx.Logger()
	log.Logger = global
	return nil
}

func parseLevel(s string, def zerolog.Level) zerolog.Level {
	if s == "" {
		return def
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return def
	}
	return lvl
}

// Close flushes buffered Axiom events. Safe to call when nothing was set up.
func Close() {
	if sink == nil {
		return
	}
	if err := sink.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Axiom flush failed: %v\n", err)
	}
	sink = nil
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }
