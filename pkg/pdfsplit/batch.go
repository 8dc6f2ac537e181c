package pdfsplit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultGlob selects PDF files by name.
const DefaultGlob = "*.pdf"

// Outcome is the result of one file in a batch: either Outputs or Err.
type Outcome struct {
	Input   string   `json:"input"`
	Outputs []string `json:"outputs,omitempty"`
	Err     error    `json:"-"`
}

// Failed reports whether the file could not be split.
func (o Outcome) Failed() bool { return o.Err != nil }

// Failed counts the failed outcomes.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Discover collects input files from roots. A root naming a file is kept when it
// has a .pdf suffix; a directory is searched for base names matching glob,
// descending into subdirectories when recursive. Each root's matches are sorted
// lexically, roots keep their given order, and repeated files are dropped.
func Discover(roots []string, glob string, recursive bool) ([]string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, newError(KindInvalidArgument, "glob", glob, err)
	}

	seen := make(map[string]struct{})
	var found []string
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, p)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, newError(KindNotFound, "discover", root, err)
			}
			return nil, newError(KindIO, "discover", root, err)
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(root), ".pdf") {
				add(root)
			}
			continue
		}
		matches, err := matchDir(root, glob, recursive)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return found, nil
}

func matchDir(root, glob string, recursive bool) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(glob, d.Name()); !ok {
			return nil
		}
		// Symlinks count when they resolve to a regular file; linked
		// directories are not descended.
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		matches = append(matches, path)
		return nil
	})
	if err != nil {
		return nil, newError(KindIO, "discover", root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// SplitBatch splits every input in order. A failing file is recorded in its
// Outcome and the remaining files are still processed. With an empty
// opts.OutputDir each file's chunks are written next to it.
func (s *Splitter) SplitBatch(ctx context.Context, inputs []string, opts Options) []Outcome {
	outcomes := make([]Outcome, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Input: in, Err: newError(KindCanceled, "batch", in, err)})
			continue
		}
		paths, err := s.Split(ctx, in, opts)
		if err != nil {
			log.Warn().Err(err).Str("input", in).Str("kind", KindOf(err).String()).Msg("split failed")
			outcomes = append(outcomes, Outcome{Input: in, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{Input: in, Outputs: paths})
	}
	return outcomes
}

// Batch splits every file under root whose base name matches glob, recursively.
func (s *Splitter) Batch(ctx context.Context, root, glob string, opts Options) ([]Outcome, error) {
	inputs, err := Discover([]string{root}, glob, true)
	if err != nil {
		return nil, err
	}
	return s.SplitBatch(ctx, inputs, opts), nil
}

// SplitBatch runs Splitter.SplitBatch with the pdfcpu opener.
func SplitBatch(ctx context.Context, inputs []string, opts Options) []Outcome {
	return New(nil).SplitBatch(ctx, inputs, opts)
}

// Batch runs Splitter.Batch with the pdfcpu opener.
func Batch(ctx context.Context, root, glob string, opts Options) ([]Outcome, error) {
	return New(nil).Batch(ctx, root, glob, opts)
}
