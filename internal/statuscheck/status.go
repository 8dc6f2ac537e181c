package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/testpdf"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketHeader models the S3 call used to check bucket access.
type BucketHeader interface {
	HeadBucket(ctx context.Context, bucket string) error
}

// ChunkVerifier re-reads split output with a second engine.
type ChunkVerifier interface {
	Verify(outs []pdfsplit.Output) (*pdftest.Diagnostics, error)
}

// Checker aggregates health checks for the optional backends used by the CLI.
type Checker struct {
	redis    RedisPinger
	s3       BucketHeader
	s3Bucket string
	verifier ChunkVerifier
}

// Options configures the Checker. Nil clients mean the backend is not configured.
type Options struct {
	Redis    RedisPinger
	S3       BucketHeader
	S3Bucket string
	Verifier ChunkVerifier
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	PDFEngine Status `json:"pdf_engine"`
	MuPDF     Status `json:"mupdf"`
	Redis     Status `json:"redis"`
	S3        Status `json:"s3"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{redis: opts.Redis, s3: opts.S3, s3Bucket: opts.S3Bucket, verifier: opts.Verifier}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	engine, mupdf := c.checkPDFEngine(ctx)
	return Summary{
		PDFEngine: engine,
		MuPDF:     mupdf,
		Redis:     c.checkRedis(ctx),
		S3:        c.checkS3(ctx),
	}
}

// checkPDFEngine splits a generated three-page document in a temp dir and,
// when a verifier is configured, re-opens the chunks with it.
func (c *Checker) checkPDFEngine(ctx context.Context) (engine, mupdf Status) {
	mupdf = Status{OK: false, Message: "Not configured"}
	dir, err := os.MkdirTemp("", "pdfsplit-doctor-*")
	if err != nil {
		return Status{OK: false, Message: trimError(err)}, mupdf
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "selftest.pdf")
	if err := testpdf.Write(in, 3); err != nil {
		return Status{OK: false, Message: trimError(err)}, mupdf
	}
	outs, err := pdfsplit.SplitDetailed(ctx, in, pdfsplit.Options{MaxPages: 2})
	if err != nil {
		return Status{OK: false, Message: trimError(err)}, mupdf
	}
	if len(outs) != 2 {
		return Status{OK: false, Message: "unexpected chunk count"}, mupdf
	}
	engine = Status{OK: true, Message: "Available"}

	if c.verifier == nil {
		return engine, mupdf
	}
	if _, err := c.verifier.Verify(outs); err != nil {
		return engine, Status{OK: false, Message: trimError(err)}
	}
	return engine, Status{OK: true, Message: "Available"}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: "Not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" || c.s3 == nil {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.s3.HeadBucket(ctx, c.s3Bucket); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
