// Package export renders a published entry to downloadable PDF or DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Entry holds the entry data needed for export.
type Entry struct {
	Slug      string
	Title     string
	Content   string // stored HTML
	CreatedAt time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
	// ErrUnsupportedFormat indicates the requested format is not known.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
