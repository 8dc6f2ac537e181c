// Package source turns an input reference into a local file path.
// References may be filesystem paths, file://, http(s):// or s3:// URLs;
// remote inputs are downloaded into a temp directory under their own base name
// so the chunk names keep the original stem.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// Temp directory prefixes, also matched by CleanupTemps.
const (
	HTTPTempPrefix = "pdfdl-"
	S3TempPrefix   = "s3pdf-"
)

// S3Downloader is the part of storage.S3Client used for s3:// inputs.
type S3Downloader interface {
	DownloadToFile(ctx context.Context, loc storage.Location, dst string) (int64, error)
}

// Fetcher resolves references. The S3 client is created on first use.
type Fetcher struct {
	HTTP  *http.Client
	NewS3 func(ctx context.Context) (S3Downloader, error)

	mu sync.Mutex
	s3 S3Downloader
}

// Resolved is a local file ready for splitting.
type Resolved struct {
	Path   string
	Remote bool
	tmpDir string
}

// Cleanup removes the downloaded copy of a remote input.
func (r Resolved) Cleanup() {
	if r.tmpDir == "" {
		return
	}
	if err := os.RemoveAll(r.tmpDir); err != nil {
		log.Warn().Err(err).Str("dir", r.tmpDir).Msg("failed to remove temp download")
	}
}

// IsRemote reports whether ref needs downloading.
func IsRemote(ref string) bool {
	return storage.IsS3URI(ref) || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Resolve returns a local path for ref.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (Resolved, error) {
	switch {
	case storage.IsS3URI(ref):
		return f.fromS3(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return f.fromHTTP(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		return Resolved{Path: strings.TrimPrefix(ref, "file://")}, nil
	default:
		return Resolved{Path: ref}, nil
	}
}

func (f *Fetcher) fromHTTP(ctx context.Context, ref string) (Resolved, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindInvalidArgument, Op: "fetch", Path: ref, Err: err}
	}
	// #page fragments are viewer hints, never part of the resource.
	u.Fragment = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindInvalidArgument, Op: "fetch", Path: ref, Err: err}
	}
	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindNotFound, Op: "fetch", Path: ref, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	dir, dst, err := tempTarget(HTTPTempPrefix, path.Base(u.Path))
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}
	res := Resolved{Path: dst, Remote: true, tmpDir: dir}
	out, err := os.Create(dst)
	if err != nil {
		res.Cleanup()
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		res.Cleanup()
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}
	log.Debug().Str("url", ref).Str("file", dst).Msg("downloaded pdf to temp")
	return res, nil
}

func (f *Fetcher) fromS3(ctx context.Context, ref string) (Resolved, error) {
	loc, err := storage.ParseURI(ref)
	if err != nil || loc.Key == "" {
		if err == nil {
			err = fmt.Errorf("missing key")
		}
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindInvalidArgument, Op: "fetch", Path: ref, Err: err}
	}
	cli, err := f.s3Client(ctx)
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}

	dir, dst, err := tempTarget(S3TempPrefix, path.Base(loc.Key))
	if err != nil {
		return Resolved{}, &pdfsplit.Error{Kind: pdfsplit.KindIO, Op: "fetch", Path: ref, Err: err}
	}
	res := Resolved{Path: dst, Remote: true, tmpDir: dir}
	if _, err := cli.DownloadToFile(ctx, loc, dst); err != nil {
		res.Cleanup()
		kind := pdfsplit.KindIO
		if storage.IsNotFound(err) {
			kind = pdfsplit.KindNotFound
		}
		return Resolved{}, &pdfsplit.Error{Kind: kind, Op: "fetch", Path: ref, Err: err}
	}
	return res, nil
}

func (f *Fetcher) s3Client(ctx context.Context) (S3Downloader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.s3 != nil {
		return f.s3, nil
	}
	if f.NewS3 == nil {
		return nil, fmt.Errorf("s3 inputs are not configured")
	}
	c, err := f.NewS3(ctx)
	if err != nil {
		return nil, err
	}
	f.s3 = c
	return c, nil
}

// tempTarget creates a private temp dir and names the download inside it.
func tempTarget(prefix, base string) (string, string, error) {
	if base == "" || base == "." || base == "/" {
		base = "download.pdf"
	}
	dir, err := os.MkdirTemp("", prefix+"*")
	if err != nil {
		return "", "", err
	}
	return dir, filepath.Join(dir, base), nil
}
