package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/pkg/pdfsplit"
)

type fakeS3 struct {
	body []byte
	err  error
	got  storage.Location
}

func (f *fakeS3) DownloadToFile(ctx context.Context, loc storage.Location, dst string) (int64, error) {
	f.got = loc
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.body)), os.WriteFile(dst, f.body, 0o644)
}

func TestResolveLocal(t *testing.T) {
	f := &Fetcher{}
	r, err := f.Resolve(context.Background(), "/data/in/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/data/in/report.pdf", r.Path)
	assert.False(t, r.Remote)

	r, err = f.Resolve(context.Background(), "file:///data/in/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/data/in/report.pdf", r.Path)
	r.Cleanup()
}

func TestResolveLocalKeepsHash(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "report#2.pdf")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4\n"), 0o644))

	f := &Fetcher{}
	r, err := f.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, r.Path)
	assert.False(t, r.Remote)
	assert.FileExists(t, r.Path)
}

func TestResolveHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/annual-report.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4\n"))
	}))
	defer srv.Close()

	f := &Fetcher{HTTP: srv.Client()}
	r, err := f.Resolve(context.Background(), srv.URL+"/files/annual-report.pdf?sig=abc#page=2")
	require.NoError(t, err)
	assert.True(t, r.Remote)
	assert.Equal(t, "annual-report.pdf", filepath.Base(r.Path))
	data, err := os.ReadFile(r.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n", string(data))

	r.Cleanup()
	assert.NoFileExists(t, r.Path)

	_, err = f.Resolve(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Equal(t, pdfsplit.KindNotFound, pdfsplit.KindOf(err))
}

func TestResolveS3(t *testing.T) {
	s3 := &fakeS3{body: []byte("%PDF-1.7\n")}
	f := &Fetcher{NewS3: func(ctx context.Context) (S3Downloader, error) { return s3, nil }}

	r, err := f.Resolve(context.Background(), "s3://docs/in/scan.pdf")
	require.NoError(t, err)
	defer r.Cleanup()
	assert.Equal(t, storage.Location{Bucket: "docs", Key: "in/scan.pdf"}, s3.got)
	assert.Equal(t, "scan.pdf", filepath.Base(r.Path))
	assert.FileExists(t, r.Path)
}

func TestResolveS3Errors(t *testing.T) {
	f := &Fetcher{}
	_, err := f.Resolve(context.Background(), "s3://docs/in/scan.pdf")
	assert.Equal(t, pdfsplit.KindIO, pdfsplit.KindOf(err), "no client configured")

	_, err = f.Resolve(context.Background(), "s3://docs")
	assert.Equal(t, pdfsplit.KindInvalidArgument, pdfsplit.KindOf(err))

	failing := &fakeS3{err: errors.New("access denied")}
	f = &Fetcher{NewS3: func(ctx context.Context) (S3Downloader, error) { return failing, nil }}
	_, err = f.Resolve(context.Background(), "s3://docs/in/scan.pdf")
	assert.Equal(t, pdfsplit.KindIO, pdfsplit.KindOf(err))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("s3://b/k.pdf"))
	assert.True(t, IsRemote("https://example.com/a.pdf"))
	assert.False(t, IsRemote("file:///tmp/a.pdf"))
	assert.False(t, IsRemote("a.pdf"))
}
