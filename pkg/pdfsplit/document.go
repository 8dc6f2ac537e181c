package pdfsplit

import "io"

// Document is an open source PDF. Close releases the underlying file handle.
// Extract copies the document information dictionary into the chunk when
// keepMetadata is set.
type Document interface {
	PageCount() int
	Extract(r PageRange, keepMetadata bool) (Extracted, error)
	Close() error
}

// Extracted is an in-memory document holding one chunk's pages.
type Extracted interface {
	Write(w io.Writer) error
	Close() error
}

// Opener opens a PDF path, decrypting it with password when it is encrypted.
// Implementations return *Error values classified as not-found, malformed or authentication.
type Opener interface {
	Open(path, password string) (Document, error)
}

// defaultOpener is provided in pdfcpu.go.
var defaultOpener Opener = pdfcpuOpener{}

// DefaultOpener returns the pdfcpu-backed Opener used by Split.
func DefaultOpener() Opener { return defaultOpener }
