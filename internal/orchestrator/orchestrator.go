// Package orchestrator runs the split pipeline for the CLI: resolve the input,
// split it, optionally verify and upload the chunks, and record run status.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/source"
	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// Status is the run-level record kept in the StatusStore.
type Status struct {
	Status   string
	Progress int
	Message  string
	Start    *time.Time
	End      *time.Time
	Metadata map[string]any
}

// FileRecord is the per-input record kept in the StatusStore.
type FileRecord struct {
	Input   string
	Status  string
	Kind    string
	Error   string
	Outputs []string
}

type StatusStore interface {
	Set(ctx context.Context, runID string, st Status) error
	SaveFile(ctx context.Context, runID string, index int, rec FileRecord) error
}

type Resolver interface {
	Resolve(ctx context.Context, ref string) (source.Resolved, error)
}

type Verifier interface {
	Verify(outs []pdfsplit.Output) (*pdftest.Diagnostics, error)
}

// Dependencies wires the pipeline. Status, NewUploader and Verifier are optional.
type Dependencies struct {
	Splitter    *pdfsplit.Splitter
	Resolver    Resolver
	Status      StatusStore
	NewUploader func(ctx context.Context) (Uploader, error)
	Verifier    Verifier
}

type Orchestrator struct {
	deps Dependencies

	mu sync.Mutex
	up Uploader
}

func New(deps Dependencies) *Orchestrator {
	if deps.Splitter == nil {
		deps.Splitter = pdfsplit.New(nil)
	}
	if deps.Resolver == nil {
		deps.Resolver = &source.Fetcher{}
	}
	return &Orchestrator{deps: deps}
}

// Request carries the split options. Options.OutputDir may be an s3://bucket/prefix.
type Request struct {
	Options pdfsplit.Options
	Verify  bool
}

// BatchRequest adds discovery settings to Request.
type BatchRequest struct {
	Request
	Glob      string
	Recursive bool
}

// RunSplit splits one input reference and returns the produced paths or URIs.
func (o *Orchestrator) RunSplit(ctx context.Context, ref string, req Request) ([]string, error) {
	runID := uuid.NewString()
	start := time.Now()
	o.setStatus(ctx, runID, Status{
		Status:   "running",
		Start:    &start,
		Message:  "splitting " + ref,
		Metadata: map[string]any{"mode": "split", "input": ref, "max_pages": req.Options.MaxPages, "total": 1},
	})

	paths, err := o.process(ctx, runID, ref, req)
	o.saveFile(ctx, runID, 1, ref, paths, err)

	failed := 0
	if err != nil {
		failed = 1
	}
	o.finish(ctx, runID, start, 1, failed)
	if err == nil {
		log.Info().Str("run_id", runID).Str("input", ref).Int("chunks", len(paths)).Dur("took", time.Since(start)).Msg("split finished")
	}
	return paths, err
}

// RunBatch discovers inputs under roots and splits each one, isolating failures.
// Roots are processed in the given order; a remote reference is one input.
func (o *Orchestrator) RunBatch(ctx context.Context, roots []string, req BatchRequest) ([]pdfsplit.Outcome, error) {
	inputs, err := collectInputs(roots, req.Glob, req.Recursive)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	o.setStatus(ctx, runID, Status{
		Status:   "running",
		Start:    &start,
		Message:  fmt.Sprintf("0/%d files", len(inputs)),
		Metadata: map[string]any{"mode": "batch", "roots": roots, "glob": req.Glob, "max_pages": req.Options.MaxPages, "total": len(inputs)},
	})
	log.Info().Str("run_id", runID).Int("files", len(inputs)).Msg("batch started")

	outcomes := make([]pdfsplit.Outcome, 0, len(inputs))
	failed := 0
	for i, in := range inputs {
		var paths []string
		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = &pdfsplit.Error{Kind: pdfsplit.KindCanceled, Op: "batch", Path: in, Err: ctxErr}
		} else {
			paths, err = o.process(ctx, runID, in, req.Request)
		}
		if err != nil {
			failed++
			log.Warn().Err(err).Str("run_id", runID).Str("input", in).Str("kind", pdfsplit.KindOf(err).String()).Msg("split failed")
		}
		outcomes = append(outcomes, pdfsplit.Outcome{Input: in, Outputs: paths, Err: err})
		o.saveFile(ctx, runID, i+1, in, paths, err)
		o.setStatus(ctx, runID, Status{
			Status:   "running",
			Progress: (i + 1) * 100 / len(inputs),
			Start:    &start,
			Message:  fmt.Sprintf("%d/%d files", i+1, len(inputs)),
		})
	}

	metrics.SetBatch(len(inputs), failed)
	o.finish(ctx, runID, start, len(inputs), failed)
	log.Info().Str("run_id", runID).Int("files", len(inputs)).Int("failed", failed).Dur("took", time.Since(start)).Msg("batch finished")
	return outcomes, nil
}

// collectInputs expands roots in order, dropping files already listed.
func collectInputs(roots []string, glob string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(key, in string) {
		if seen[key] {
			return
		}
		seen[key] = true
		inputs = append(inputs, in)
	}
	for _, r := range roots {
		if source.IsRemote(r) {
			add(r, r)
			continue
		}
		found, err := pdfsplit.Discover([]string{r}, glob, recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			key := f
			if abs, err := filepath.Abs(f); err == nil {
				key = abs
			}
			add(key, f)
		}
	}
	return inputs, nil
}

func (o *Orchestrator) process(ctx context.Context, runID, ref string, req Request) ([]string, error) {
	res, err := o.deps.Resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer res.Cleanup()

	opts := req.Options
	var remote *storage.Location
	switch {
	case storage.IsS3URI(opts.OutputDir):
		loc, err := storage.ParseURI(opts.OutputDir)
		if err != nil {
			return nil, &pdfsplit.Error{Kind: pdfsplit.KindInvalidArgument, Op: "output", Path: opts.OutputDir, Err: err}
		}
		stage, err := os.MkdirTemp("", OutTempPrefix+"*")
		if err != nil {
			return nil, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "mkdir", Path: os.TempDir(), Err: err}
		}
		defer os.RemoveAll(stage)
		opts.OutputDir = stage
		remote = &loc
	case opts.OutputDir == "" && res.Remote:
		// the download dir is removed on return
		opts.OutputDir = "."
	}

	outs, err := o.deps.Splitter.SplitDetailed(ctx, res.Path, opts)
	if err != nil {
		return nil, err
	}

	if req.Verify && o.deps.Verifier != nil {
		diag, err := o.deps.Verifier.Verify(outs)
		if err != nil {
			if remote == nil {
				removeOutputs(outs)
			}
			return nil, &pdfsplit.Error{Kind: pdfsplit.KindMalformed, Op: "verify", Path: ref, Err: err}
		}
		log.Debug().Str("input", ref).Int("pages", diag.TotalPages).Int64("ms", diag.DurationMs).Msg("chunks verified")
	}

	if remote != nil {
		return o.uploadChunks(ctx, *remote, ref, runID, outs, opts.Overwrite)
	}
	return pdfsplit.Paths(outs), nil
}

func removeOutputs(outs []pdfsplit.Output) {
	for _, out := range outs {
		if err := os.Remove(out.Path); err != nil {
			log.Warn().Err(err).Str("file", out.Path).Msg("failed to remove unverified chunk")
		}
	}
}

func (o *Orchestrator) setStatus(ctx context.Context, runID string, st Status) {
	if o.deps.Status == nil {
		return
	}
	if err := o.deps.Status.Set(ctx, runID, st); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("failed to record run status")
	}
}

func (o *Orchestrator) saveFile(ctx context.Context, runID string, index int, ref string, paths []string, err error) {
	if o.deps.Status == nil {
		return
	}
	rec := FileRecord{Input: ref, Status: "done", Outputs: paths}
	if err != nil {
		rec.Status = "failed"
		rec.Kind = pdfsplit.KindOf(err).String()
		rec.Error = err.Error()
	}
	if serr := o.deps.Status.SaveFile(ctx, runID, index, rec); serr != nil {
		log.Warn().Err(serr).Str("run_id", runID).Int("index", index).Msg("failed to record file status")
	}
}

func (o *Orchestrator) finish(ctx context.Context, runID string, start time.Time, total, failed int) {
	end := time.Now()
	st := Status{
		Status:   "done",
		Progress: 100,
		Start:    &start,
		End:      &end,
		Message:  fmt.Sprintf("%d files, %d failed", total, failed),
		Metadata: map[string]any{"total": total, "failed": failed},
	}
	switch {
	case failed > 0 && failed == total:
		st.Status = "failed"
	case failed > 0:
		st.Status = "partial"
	}
	o.setStatus(ctx, runID, st)
}
