package export

import (
	"context"
	"fmt"
	"time"
)

// Service renders board exports.
type Service struct {
	pdf func(ctx context.Context, html, title string) (*Result, error)
	now func() time.Time
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{pdf: exportPDF, now: time.Now}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	generated := req.GeneratedAt
	if generated.IsZero() {
		generated = s.now()
	}
	title := "Job applications"
	if req.OwnerName != "" {
		title = req.OwnerName + " job applications"
	}

	switch req.Format {
	case FormatCSV, "":
		return exportCSV(req.Jobs, title)
	case FormatPDF:
		html, err := RenderBoardHTML(TemplateData{
			Title:       title,
			OwnerName:   req.OwnerName,
			GeneratedAt: generated,
			Total:       len(req.Jobs),
			Columns:     Columns(req.Jobs),
		})
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return s.pdf(ctx, html, title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}
