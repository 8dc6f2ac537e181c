package pdftest

import (
	"fmt"

	fitz "github.com/gen2brain/go-fitz"
)

func init() { setDefaultOpener(mupdfOpener{}) }

// mupdfOpener reads chunks with MuPDF through go-fitz. It shares no code
// with pdfcpu, so a chunk pdfcpu wrote badly is unlikely to pass both.
type mupdfOpener struct{}

func (mupdfOpener) Open(path string) (Doc, error) {
	d, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &mupdfDoc{d: d, pages: d.NumPage()}, nil
}

type mupdfDoc struct {
	d     *fitz.Document
	pages int
}

func (m *mupdfDoc) NumPage() int { return m.pages }

// Page returns a handle for page i (0-based); text is decoded on demand.
func (m *mupdfDoc) Page(i int) (Page, error) {
	if i < 0 || i >= m.pages {
		return nil, fmt.Errorf("page %d out of range (document has %d)", i+1, m.pages)
	}
	return mupdfPage{d: m.d, n: i}, nil
}

func (m *mupdfDoc) Close() error { return m.d.Close() }

type mupdfPage struct {
	d *fitz.Document
	n int
}

func (p mupdfPage) Text() (string, error) {
	text, err := p.d.Text(p.n)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", p.n+1, err)
	}
	return text, nil
}

func (mupdfPage) Close() {}
