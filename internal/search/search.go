// Package search finds applications on a user's board by free text. It
// prefers Meilisearch and falls back to Postgres pattern matching.
package search

import (
	"jobtrack/api/internal/jobs"
)

// Result is a single search hit returned to the caller.
type Result struct {
	ID          string      `json:"id"`
	CompanyName string      `json:"companyName"`
	Position    string      `json:"position"`
	Stage       jobs.Stage  `json:"stage"`
	Status      jobs.Status `json:"status"`
	Snippet     string      `json:"snippet"`
	Tags        []string    `json:"tags"`
}

// Query describes a search request. OwnerID is mandatory; a query without it
// returns nothing.
type Query struct {
	OwnerID string
	Text    string
	Stage   jobs.Stage
	Limit   int
	Offset  int
}

func (q Query) limit() int {
	if q.Limit <= 0 || q.Limit > 100 {
		return 20
	}
	return q.Limit
}

func (q Query) offset() int {
	if q.Offset < 0 {
		return 0
	}
	return q.Offset
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// JobRecord is the data we index for an application.
type JobRecord struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	CompanyName string   `json:"companyName"`
	Position    string   `json:"position"`
	Stage       string   `json:"stage"`
	Status      string   `json:"status"`
	Location    string   `json:"location"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
}

func RecordFromJob(job jobs.Job) JobRecord {
	rec := JobRecord{
		ID:          job.ID,
		UserID:      job.OwnerID,
		CompanyName: job.CompanyName,
		Position:    job.Position,
		Stage:       string(job.Stage),
		Status:      string(job.Status),
		Tags:        append([]string{}, job.Tags...),
	}
	if job.Location != nil {
		rec.Location = *job.Location
	}
	if job.Notes != nil {
		rec.Notes = *job.Notes
	}
	return rec
}
