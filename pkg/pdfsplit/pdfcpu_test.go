package pdfsplit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplit/internal/testpdf"
)

func writeFixture(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, testpdf.Write(p, pages))
	return p
}

func pageCounts(t *testing.T, paths []string) []int {
	t.Helper()
	counts := make([]int, len(paths))
	for i, p := range paths {
		n, err := api.PageCountFile(p)
		require.NoError(t, err, p)
		counts[i] = n
	}
	return counts
}

func TestSplitPDF(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "demo.pdf", 23)

	paths, err := Split(context.Background(), in, Options{MaxPages: 10})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, []int{10, 10, 3}, pageCounts(t, paths))
	assert.Equal(t, filepath.Join(dir, "demo_part_01.pdf"), paths[0])
}

func TestSplitPDFSingleChunk(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "ten.pdf", 10)

	outs, err := SplitDetailed(context.Background(), in, Options{MaxPages: 10, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, PageRange{1, 10}, outs[0].Chunk.Range)
	assert.Equal(t, []int{10}, pageCounts(t, Paths(outs)))
}

func TestSplitPDFRoundTripPageCount(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "rt.pdf", 17)

	outs, err := SplitDetailed(context.Background(), in, Options{MaxPages: 4, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)

	counts := pageCounts(t, Paths(outs))
	total := 0
	for i, o := range outs {
		assert.Equal(t, o.Chunk.Range.Len(), counts[i])
		total += counts[i]
	}
	assert.Equal(t, 17, total)
}

// pageContents returns the decoded content stream of every page of path.
func pageContents(t *testing.T, path string) []string {
	t.Helper()
	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err, path)
	require.NoError(t, ctx.EnsurePageCount())
	contents := make([]string, ctx.PageCount)
	for i := range contents {
		r, err := pdfcpu.ExtractPageContent(ctx, i+1)
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		contents[i] = strings.TrimSpace(string(b))
	}
	return contents
}

func TestSplitPDFKeepsPageOrder(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, "order.pdf", 8)

	outs, err := SplitDetailed(context.Background(), in, Options{MaxPages: 3, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	require.Len(t, outs, 3)

	assert.Equal(t, "0 0 m 40 100 l S", pageContents(t, outs[1].Path)[0])

	var got, want []string
	for _, o := range outs {
		got = append(got, pageContents(t, o.Path)...)
	}
	for n := 1; n <= 8; n++ {
		want = append(want, testpdf.Content(n))
	}
	assert.Equal(t, want, got)
}

// infoTitle reads the Title entry of path's document information dictionary.
func infoTitle(t *testing.T, path string) string {
	t.Helper()
	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err, path)
	if ctx.Info == nil {
		return ""
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	require.NoError(t, err)
	v, ok := d.Find("Title")
	if !ok {
		return ""
	}
	title, err := ctx.DereferenceText(v)
	require.NoError(t, err)
	return title
}

func TestSplitPDFKeepMetadata(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "titled.pdf")
	require.NoError(t, os.WriteFile(in, testpdf.BuildWithInfo(3, map[string]string{"Title": "Quarterly Report", "Author": "Finance"}), 0o644))

	kept, err := Split(context.Background(), in, Options{MaxPages: 2, OutputDir: filepath.Join(dir, "kept"), KeepMetadata: true})
	require.NoError(t, err)
	require.Len(t, kept, 2)
	for _, p := range kept {
		assert.Equal(t, "Quarterly Report", infoTitle(t, p), p)
	}

	dropped, err := Split(context.Background(), in, Options{MaxPages: 2, OutputDir: filepath.Join(dir, "dropped")})
	require.NoError(t, err)
	assert.Empty(t, infoTitle(t, dropped[0]))
}

func TestSplitPDFEncrypted(t *testing.T) {
	dir := t.TempDir()
	plain := writeFixture(t, dir, "plain.pdf", 5)
	locked := filepath.Join(dir, "locked.pdf")
	require.NoError(t, api.EncryptFile(plain, locked, model.NewAESConfiguration("secret", "owner-secret", 256)))

	out := filepath.Join(dir, "out")
	_, err := Split(context.Background(), locked, Options{MaxPages: 2, OutputDir: out, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err), "error: %v", err)
	assert.NoDirExists(t, out)

	_, err = Split(context.Background(), locked, Options{MaxPages: 2, OutputDir: out})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err), "error: %v", err)

	paths, err := Split(context.Background(), locked, Options{MaxPages: 2, OutputDir: out, Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, pageCounts(t, paths))
}

func TestSplitPDFCorrupt(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(in, testpdf.Corrupt, 0o644))

	_, err := Split(context.Background(), in, Options{MaxPages: 2})
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err), "error: %v", err)
}

func TestBatchWithCorruptFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.pdf", 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), testpdf.Corrupt, 0o644))
	writeFixture(t, dir, "c.pdf", 2)

	outcomes, err := Batch(context.Background(), dir, "*.pdf", Options{MaxPages: 3, OutputDir: filepath.Join(dir, "out")})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, 1, Failed(outcomes))

	assert.False(t, outcomes[0].Failed())
	assert.Len(t, outcomes[0].Outputs, 2)
	assert.True(t, outcomes[1].Failed())
	assert.Equal(t, KindMalformed, KindOf(outcomes[1].Err))
	assert.False(t, outcomes[2].Failed())
	assert.Len(t, outcomes[2].Outputs, 1)
}
