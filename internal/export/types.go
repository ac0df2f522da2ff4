// Package export renders a user's board as CSV or PDF and can archive the
// result in S3-compatible storage.
package export

import (
	"errors"
	"time"

	"jobtrack/api/internal/jobs"
)

// Format represents the export output format
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts the query value of an export request. Empty means CSV.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Request contains parameters for an export operation
type Request struct {
	Format      Format
	OwnerName   string
	Jobs        []jobs.Job
	GeneratedAt time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	ErrArchiveDisabled      = errors.New("export archive is not configured")
)
