package filetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsplit/internal/testpdf"
)

func TestIsPDF(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	require.NoError(t, testpdf.Write(pdf, 1))
	text := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(text, []byte("just some words\n"), 0o644))
	blob := filepath.Join(dir, "blob.pdf")
	require.NoError(t, os.WriteFile(blob, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, 0o644))

	d := New()
	tests := []struct {
		path string
		ok   bool
		desc string
	}{
		{pdf, true, "PDF document"},
		{text, false, "Plain text file"},
		{blob, false, "Unrecognized binary data"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			ok, desc, err := d.IsPDF(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.desc, desc)
		})
	}
}

func TestDetectMissingFile(t *testing.T) {
	_, err := New().Detect(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
