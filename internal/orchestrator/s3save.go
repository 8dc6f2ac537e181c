package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// Uploader stores one local chunk in object storage.
type Uploader interface {
	UploadFile(ctx context.Context, loc storage.Location, src string, overwrite bool, metadata map[string]string) error
}

// uploadChunks copies every chunk under prefix and returns the s3:// URIs in chunk order.
// Chunks uploaded before a failure stay in the bucket; the error names the first missing one.
func (o *Orchestrator) uploadChunks(ctx context.Context, prefix storage.Location, ref, runID string, outs []pdfsplit.Output, overwrite bool) ([]string, error) {
	up, err := o.uploader(ctx)
	if err != nil {
		return nil, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "upload", Path: prefix.String(), Err: err}
	}

	created := time.Now().UTC().Format(time.RFC3339)
	uris := make([]string, 0, len(outs))
	for _, out := range outs {
		loc := prefix.Join(filepath.Base(out.Path))
		metadata := map[string]string{
			"source":  filepath.Base(ref),
			"run_id":  runID,
			"chunk":   strconv.Itoa(out.Chunk.Index1),
			"pages":   out.Chunk.Range.String(),
			"created": created,
		}
		if err := up.UploadFile(ctx, loc, out.Path, overwrite, metadata); err != nil {
			metrics.IncUpload("error")
			kind := pdfsplit.KindIO
			if errors.Is(err, storage.ErrObjectExists) {
				kind = pdfsplit.KindExists
			}
			return nil, &pdfsplit.Error{Kind: kind, Op: "upload", Path: loc.String(), Err: fmt.Errorf("chunk %d: %w", out.Chunk.Index1, err)}
		}
		metrics.IncUpload("success")
		uris = append(uris, loc.String())
	}

	log.Info().
		Str("run_id", runID).
		Str("input", ref).
		Str("prefix", prefix.String()).
		Int("chunks", len(uris)).
		Msg("uploaded chunks to s3")
	return uris, nil
}

func (o *Orchestrator) uploader(ctx context.Context) (Uploader, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.up != nil {
		return o.up, nil
	}
	if o.deps.NewUploader == nil {
		return nil, errors.New("s3 outputs are not configured")
	}
	up, err := o.deps.NewUploader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	o.up = up
	return up, nil
}
