package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")

	d.classify(info, filePath)
	return info, nil
}

// classify marks PDFs and describes everything else so callers can explain a rejection.
func (d *Detector) classify(info *FileTypeInfo, filePath string) {
	switch {
	case mimetype.EqualsAny(info.MIMEType, pdfMIME):
		info.IsPDF = true
		info.Description = "PDF document"
	case strings.HasPrefix(info.MIMEType, "text/"):
		info.Description = "Plain text file"
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.Description = "Image file"
	case info.MIMEType == "application/octet-stream":
		if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
			log.Warn().Str("file", filePath).Msg("file has .pdf extension but no PDF header")
		}
		info.Description = "Unrecognized binary data"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}

// IsPDF reports whether filePath starts with a PDF header.
// The returned description names the detected type when it is not a PDF.
func (d *Detector) IsPDF(filePath string) (bool, string, error) {
	info, err := d.Detect(filePath)
	if err != nil {
		return false, "", err
	}
	return info.IsPDF, info.Description, nil
}
