// Package testpdf writes small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Build returns a PDF with the given number of letter-size pages. Page n
// carries a content stream drawing a line whose length encodes n.
func Build(pages int) []byte { return BuildWithInfo(pages, nil) }

// Content is the content stream Build writes for page n (1-based).
func Content(n int) string { return fmt.Sprintf("0 0 m %d 100 l S", 10*n) }

// BuildWithInfo is Build plus a document information dictionary holding info
// (e.g. "Title", "Author") as string entries.
func BuildWithInfo(pages int, info map[string]string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents %d 0 R >>", 3+pages+i))
	}
	for i := 0; i < pages; i++ {
		content := Content(i + 1)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	infoRef := ""
	if len(info) > 0 {
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var d strings.Builder
		d.WriteString("<<")
		for _, k := range keys {
			fmt.Fprintf(&d, " /%s (%s)", k, info[k])
		}
		d.WriteString(" >>")
		obj(d.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(offsets))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, infoRef, xref)
	return buf.Bytes()
}

// Write stores Build(pages) at path.
func Write(path string, pages int) error {
	return os.WriteFile(path, Build(pages), 0o644)
}

// Corrupt is a file with a PDF header and nothing parseable after it.
var Corrupt = []byte("%PDF-1.4\nthis is not a pdf body\n%%EOF\n")
