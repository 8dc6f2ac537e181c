package pdfsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(i0, start, end int) ChunkSpec {
	return ChunkSpec{Index0: i0, Index1: i0 + 1, Range: PageRange{Start: start, End: end}}
}

func TestRenderName(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		chunk   ChunkSpec
		want    string
	}{
		{"padded page bounds", "{stem}_p{start:03d}-to-{end:03d}.pdf", chunk(1, 11, 20), "report_p011-to-020.pdf"},
		{"default pattern", "", chunk(0, 1, 10), "report_part_01.pdf"},
		{"default pattern wide index", "", chunk(119, 1191, 1200), "report_part_120.pdf"},
		{"zero based index", "{stem}_part{i0}", chunk(0, 1, 10), "report_part0.pdf"},
		{"one based index", "{stem}-{i}.pdf", chunk(4, 41, 50), "report-5.pdf"},
		{"plain d spec", "{i:d}_{stem}.pdf", chunk(2, 21, 30), "3_report.pdf"},
		{"space padding", "{stem}{i:3d}.pdf", chunk(0, 1, 1), "report  1.pdf"},
		{"number wider than pad", "{start:02d}.pdf", chunk(0, 123, 130), "123.pdf"},
		{"escaped braces", "{{{stem}}}.pdf", chunk(0, 1, 1), "{report}.pdf"},
		{"suffix appended", "{stem}-{i}", chunk(0, 1, 5), "report-1.pdf"},
		{"suffix case insensitive", "{stem}-{i}.PDF", chunk(0, 1, 5), "report-1.PDF"},
		{"repeated placeholder", "{i}-{i}", chunk(1, 2, 2), "2-2.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderName(tt.pattern, "report", tt.chunk)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderNameTemplateErrors(t *testing.T) {
	patterns := []string{
		"{stem}_{page}.pdf",
		"{stem:03d}.pdf",
		"{i:x}.pdf",
		"{i:03}.pdf",
		"{i:999d}.pdf",
		"{stem.pdf",
		"stem}.pdf",
		"{}.pdf",
		"{I}.pdf",
		"sub/{stem}.pdf",
		".pdf",
	}
	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			_, err := RenderName(p, "report", chunk(0, 1, 10))
			require.Error(t, err)
			assert.ErrorIs(t, err, KindTemplate)
		})
	}
}

func TestTemplateDeterministic(t *testing.T) {
	tmpl, err := ParseTemplate("{stem}_{i0:04d}_{start}-{end}")
	require.NoError(t, err)
	assert.Equal(t, "{stem}_{i0:04d}_{start}-{end}", tmpl.String())

	c := chunk(7, 71, 80)
	first, err := tmpl.FileName("scan", c)
	require.NoError(t, err)
	second, err := tmpl.FileName("scan", c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "scan_0007_71-80.pdf", first)
}

func TestTemplateRenderLeavesSuffixToFileName(t *testing.T) {
	tmpl, err := ParseTemplate("{stem}/{i}")
	require.NoError(t, err)

	c := chunk(1, 6, 10)
	assert.Equal(t, "scan/2", tmpl.Render("scan", c))

	_, err = tmpl.FileName("scan", c)
	assert.Equal(t, KindTemplate, KindOf(err))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "report", Stem("/data/in/report.pdf"))
	assert.Equal(t, "archive.v2", Stem("archive.v2.PDF"))
	assert.Equal(t, "noext", Stem("noext"))
}
