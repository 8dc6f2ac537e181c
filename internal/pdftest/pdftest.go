// Package pdftest re-opens written chunks with an independent PDF engine
// (MuPDF via go-fitz) and checks they hold the pages they were assigned.
package pdftest

import (
	"errors"
	"fmt"
	"time"

	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// ChunkCheck captures the result of checking a single chunk file.
type ChunkCheck struct {
	Path      string `json:"path"`
	Want      int    `json:"want_pages"`
	Got       int    `json:"got_pages"`
	FirstText int    `json:"first_page_chars"`
	Err       string `json:"err,omitempty"`
}

// Diagnostics summarizes a verification run.
type Diagnostics struct {
	Chunks     []ChunkCheck `json:"chunks"`
	TotalPages int          `json:"total_pages"`
	OK         bool         `json:"ok"`
	DurationMs int64        `json:"duration_ms"`
}

// ErrMismatch is returned when a chunk does not hold its assigned pages.
var ErrMismatch = errors.New("chunk page count mismatch")

// Doc abstracts a PDF document for verification.
type Doc interface {
	NumPage() int
	Page(i int) (Page, error)
	Close() error
}

// Page abstracts a single PDF page.
type Page interface {
	Text() (string, error)
	Close()
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// defaultOpener is set in mupdf.go.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener, useful for tests or alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// Verifier checks split outputs.
type Verifier struct{ opener Opener }

// New returns a Verifier backed by the default (MuPDF) opener.
func New() *Verifier { return &Verifier{opener: defaultOpener} }

// Verify opens every chunk, compares its page count with its range and
// reads the first page's text to make sure the content decodes.
func (v *Verifier) Verify(outs []pdfsplit.Output) (*Diagnostics, error) {
	if v.opener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	start := time.Now()
	diag := &Diagnostics{OK: true, Chunks: make([]ChunkCheck, 0, len(outs))}
	for _, o := range outs {
		check := v.check(o)
		if check.Err != "" {
			diag.OK = false
		}
		diag.TotalPages += check.Got
		diag.Chunks = append(diag.Chunks, check)
	}
	diag.DurationMs = time.Since(start).Milliseconds()

	if !diag.OK {
		for _, p := range diag.Chunks {
			if p.Err != "" {
				return diag, fmt.Errorf("%s: %w", p.Path, errors.New(p.Err))
			}
		}
	}
	return diag, nil
}

func (v *Verifier) check(o pdfsplit.Output) ChunkCheck {
	check := ChunkCheck{Path: o.Path, Want: o.Chunk.Range.Len()}
	d, err := v.opener.Open(o.Path)
	if err != nil {
		check.Err = fmt.Sprintf("failed to open PDF: %v", err)
		return check
	}
	defer d.Close()

	check.Got = d.NumPage()
	if check.Got != check.Want {
		check.Err = fmt.Sprintf("%v: want %d pages (%s), got %d", ErrMismatch, check.Want, o.Chunk.Range, check.Got)
		return check
	}
	if check.Got == 0 {
		return check
	}
	p, err := d.Page(0)
	if err != nil {
		check.Err = err.Error()
		return check
	}
	defer p.Close()
	text, err := p.Text()
	if err != nil {
		check.Err = err.Error()
		return check
	}
	check.FirstText = len([]rune(text))
	return check
}
