package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"jobtrack/api/internal/jobs"
)

var csvHeader = []string{
	"id", "company", "position", "stage", "status", "rejected_from",
	"applied_date", "location", "salary", "tags", "notes", "created_at",
}

func exportCSV(items []jobs.Job, title string) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, job := range items {
		rejectedFrom := ""
		if job.RejectedFromStage != nil {
			rejectedFrom = string(*job.RejectedFromStage)
		}
		record := []string{
			job.ID,
			job.CompanyName,
			job.Position,
			string(job.Stage),
			string(job.Status),
			rejectedFrom,
			job.AppliedDate.UTC().Format("2006-01-02"),
			deref(job.Location),
			deref(job.Salary),
			strings.Join(job.Tags, ";"),
			deref(job.Notes),
			job.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return &Result{
		Data:     buf.Bytes(),
		Filename: sanitizeFilename(title) + ".csv",
		MimeType: "text/csv; charset=utf-8",
	}, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
