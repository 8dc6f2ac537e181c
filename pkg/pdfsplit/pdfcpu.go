package pdfsplit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpuOpener implements Opener using github.com/pdfcpu/pdfcpu.
type pdfcpuOpener struct{}

func (pdfcpuOpener) Open(path, password string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindNotFound, "open", path, err)
		}
		return nil, newError(KindIO, "open", path, err)
	}

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		f.Close()
		return nil, classifyReadError(path, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		f.Close()
		return nil, newError(KindMalformed, "validate", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		f.Close()
		return nil, newError(KindMalformed, "page count", path, err)
	}
	// Drops duplicate and unreferenced objects before pages are copied out.
	if err := api.OptimizeContext(ctx); err != nil {
		f.Close()
		return nil, newError(KindMalformed, "optimize", path, err)
	}
	return &pdfcpuDocument{f: f, ctx: ctx}, nil
}

// classifyReadError separates decryption failures from broken files.
// pdfcpu reports both as plain errors, so the message is inspected.
func classifyReadError(path string, err error) *Error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "decrypt") {
		return newError(KindAuth, "decrypt", path, err)
	}
	return newError(KindMalformed, "read", path, err)
}

type pdfcpuDocument struct {
	f   *os.File
	ctx *model.Context
}

func (d *pdfcpuDocument) PageCount() int { return d.ctx.PageCount }

func (d *pdfcpuDocument) Extract(r PageRange, keepMetadata bool) (Extracted, error) {
	if r.Start < 1 || r.End > d.ctx.PageCount || r.Start > r.End {
		return nil, errorf(KindInvalidArgument, "extract", d.f.Name(), "range %s outside 1-%d", r, d.ctx.PageCount)
	}
	ctx, err := pdfcpu.ExtractPages(d.ctx, r.Pages(), false)
	if err != nil {
		return nil, newError(KindMalformed, "extract", d.f.Name(), fmt.Errorf("pages %s: %w", r, err))
	}
	if keepMetadata {
		if err := copyInfo(d.ctx, ctx); err != nil {
			return nil, newError(KindMalformed, "metadata", d.f.Name(), err)
		}
	}
	if ctx.Configuration == nil {
		ctx.Configuration = model.NewDefaultConfiguration()
	}
	ctx.Configuration.WriteObjectStream = true
	ctx.Configuration.WriteXRefStream = true
	return &pdfcpuChunk{ctx: ctx}, nil
}

// copyInfo carries the scalar entries of src's document information
// dictionary into dst. pdfcpu refreshes Producer and the dates on write.
func copyInfo(src, dst *model.Context) error {
	if src.Info == nil {
		return nil
	}
	d, err := src.DereferenceDict(*src.Info)
	if err != nil || d == nil {
		return err
	}
	info := types.NewDict()
	for k, v := range d {
		o, err := src.Dereference(v)
		if err != nil {
			return fmt.Errorf("info entry %s: %w", k, err)
		}
		switch o.(type) {
		case types.StringLiteral, types.HexLiteral, types.Name, types.Integer, types.Float, types.Boolean:
			info.Insert(k, o)
		}
	}
	if len(info) == 0 {
		return nil
	}
	ir, err := dst.IndRefForNewObject(info)
	if err != nil {
		return err
	}
	dst.Info = ir
	return nil
}

func (d *pdfcpuDocument) Close() error {
	d.ctx = nil
	return d.f.Close()
}

type pdfcpuChunk struct {
	ctx *model.Context
}

func (c *pdfcpuChunk) Write(w io.Writer) error {
	if c.ctx == nil {
		return errors.New("chunk already closed")
	}
	return api.WriteContext(c.ctx, w)
}

func (c *pdfcpuChunk) Close() error {
	c.ctx = nil
	return nil
}
