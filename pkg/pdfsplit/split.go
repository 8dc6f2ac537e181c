// Package pdfsplit splits PDF documents into chunks of at most N pages.
//
// Partition computes the page windows, Template names the output files and
// Split writes one compressed PDF per window through pdfcpu. Batch and
// SplitBatch apply Split to many files, isolating per-file failures.
package pdfsplit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/filetype"
	"github.com/local/pdfsplit/internal/metrics"
)

// DefaultMaxPages is the chunk size used by the CLI when none is given.
const DefaultMaxPages = 10

// Options are the splitting parameters shared by Split and the batch runner.
type Options struct {
	MaxPages  int
	OutputDir string // empty: next to the input file
	Pattern   string // empty: DefaultPattern
	Password  string // empty: none
	Overwrite bool
	// KeepMetadata copies the source's document information (Title, Author, ...)
	// into every chunk.
	KeepMetadata bool
}

// Output is one written chunk.
type Output struct {
	Path  string    `json:"path"`
	Chunk ChunkSpec `json:"chunk"`
}

// Sniffer checks magic bytes before a file is handed to the Opener.
type Sniffer interface {
	IsPDF(path string) (bool, string, error)
}

// Splitter runs single-file splits. The zero value is not usable; call New.
type Splitter struct {
	Opener  Opener
	Sniffer Sniffer // nil disables the magic-byte check
}

// New returns a Splitter using o, or the pdfcpu opener when o is nil.
func New(o Opener) *Splitter {
	if o == nil {
		o = defaultOpener
	}
	return &Splitter{Opener: o, Sniffer: filetype.New()}
}

// Split writes input as chunks of at most opts.MaxPages pages and returns
// the written paths in chunk order.
func Split(ctx context.Context, input string, opts Options) ([]string, error) {
	return New(nil).Split(ctx, input, opts)
}

// SplitDetailed is Split returning the page range of every written file.
func SplitDetailed(ctx context.Context, input string, opts Options) ([]Output, error) {
	return New(nil).SplitDetailed(ctx, input, opts)
}

// Split writes input as chunks of at most opts.MaxPages pages and returns
// the written paths in chunk order.
func (s *Splitter) Split(ctx context.Context, input string, opts Options) ([]string, error) {
	outs, err := s.SplitDetailed(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	return Paths(outs), nil
}

// Paths lists the output paths in order.
func Paths(outs []Output) []string {
	paths := make([]string, len(outs))
	for i, o := range outs {
		paths[i] = o.Path
	}
	return paths
}

// SplitDetailed writes input as chunks and reports each written file with its chunk.
// It is all-or-nothing: on failure, files already written by this call are removed.
func (s *Splitter) SplitDetailed(ctx context.Context, input string, opts Options) (outs []Output, err error) {
	start := time.Now()
	defer func() {
		result := "success"
		if err != nil {
			result = KindOf(err).String()
		}
		metrics.ObserveSplit(result, time.Since(start))
	}()

	if opts.MaxPages <= 0 {
		return nil, errorf(KindInvalidArgument, "options", input, "max pages must be > 0, got %d", opts.MaxPages)
	}
	tmpl, err := ParseTemplate(opts.Pattern)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	doc, err := s.Opener.Open(input, opts.Password)
	if err != nil {
		return nil, asError(err, KindMalformed, "open", input)
	}
	defer doc.Close()

	total := doc.PageCount()
	if total <= 0 {
		return nil, errorf(KindMalformed, "page count", input, "document reports %d pages", total)
	}
	ranges, err := Partition(total, opts.MaxPages)
	if err != nil {
		return nil, err
	}
	chunks := Chunks(ranges)

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	targets, err := resolveTargets(tmpl, input, outDir, chunks)
	if err != nil {
		return nil, err
	}
	if !opts.Overwrite {
		for _, t := range targets {
			if _, statErr := os.Lstat(t); statErr == nil {
				return nil, errorf(KindExists, "write", t, "output exists; enable overwrite to replace it")
			}
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, newError(KindIO, "mkdir", outDir, err)
	}

	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				log.Warn().Err(rmErr).Str("file", p).Msg("failed to remove partial output")
			}
		}
	}()

	outs = make([]Output, 0, len(chunks))
	for i, c := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(KindCanceled, "split", input, ctxErr)
		}
		if err := writeChunk(doc, c, targets[i], opts.KeepMetadata); err != nil {
			return nil, err
		}
		written = append(written, targets[i])
		metrics.AddChunk(c.Range.Len())
		log.Debug().
			Str("input", input).
			Int("chunk", c.Index1).
			Str("pages", c.Range.String()).
			Str("file", targets[i]).
			Msg("wrote chunk")
		outs = append(outs, Output{Path: targets[i], Chunk: c})
	}

	log.Info().
		Str("input", input).
		Int("pages", total).
		Int("chunks", len(outs)).
		Dur("took", time.Since(start)).
		Msg("split complete")
	return outs, nil
}

func (s *Splitter) checkInput(input string) error {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(KindNotFound, "stat", input, err)
		}
		return newError(KindIO, "stat", input, err)
	}
	if info.IsDir() {
		return errorf(KindInvalidArgument, "stat", input, "is a directory")
	}
	if s.Sniffer == nil {
		return nil
	}
	ok, desc, err := s.Sniffer.IsPDF(input)
	if err != nil {
		return newError(KindIO, "sniff", input, err)
	}
	if !ok {
		return errorf(KindMalformed, "sniff", input, "not a PDF (%s)", desc)
	}
	return nil
}

// resolveTargets renders every chunk's path up front so template failures
// and name collisions surface before anything is written.
func resolveTargets(tmpl *Template, input, outDir string, chunks []ChunkSpec) ([]string, error) {
	stem := Stem(input)
	absInput, _ := filepath.Abs(input)
	seen := make(map[string]int, len(chunks))
	targets := make([]string, len(chunks))
	for i, c := range chunks {
		name, err := tmpl.FileName(stem, c)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[name]; dup {
			return nil, templateError(tmpl.String(), "chunks %d and %d both render %q", prev, c.Index1, name)
		}
		seen[name] = c.Index1
		targets[i] = filepath.Join(outDir, name)
		if abs, _ := filepath.Abs(targets[i]); abs == absInput {
			return nil, templateError(tmpl.String(), "chunk %d would overwrite the input %s", c.Index1, input)
		}
	}
	return targets, nil
}

// writeChunk extracts one chunk and writes it through a temp file so a failed
// write never leaves a truncated PDF at target.
func writeChunk(doc Document, c ChunkSpec, target string, keepMetadata bool) (err error) {
	x, err := doc.Extract(c.Range, keepMetadata)
	if err != nil {
		return asError(err, KindMalformed, "extract", target)
	}
	defer x.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".pdfsplit-*.tmp")
	if err != nil {
		return newError(KindIO, "write", target, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = x.Write(tmp); err != nil {
		return newError(KindIO, "write", target, fmt.Errorf("pages %s: %w", c.Range, err))
	}
	if err = tmp.Close(); err != nil {
		return newError(KindIO, "write", target, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return newError(KindIO, "write", target, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return newError(KindIO, "rename", target, err)
	}
	return nil
}

// asError keeps classified errors intact and wraps anything else as kind.
func asError(err error, kind Kind, op, path string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(kind, op, path, err)
}
