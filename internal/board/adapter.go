// Package board orchestrates one user's job board: it keeps the last fetched
// list of applications, serialises actions per job with in-flight markers,
// and refetches from persistence after every successful change.
package board

import (
	"context"

	"jobtrack/api/internal/jobs"
)

// Adapter is the persistence collaborator. Every call is scoped by owner id
// and either fully succeeds or returns an error. A job that no longer exists
// is reported with an error matching ErrJobNotFound, and Move and Restore
// re-check the transition rules against the stored row.
type Adapter interface {
	FetchAll(ctx context.Context, ownerID string) ([]jobs.Job, error)
	Create(ctx context.Context, ownerID string, input jobs.NewJob) (jobs.Job, error)
	Update(ctx context.Context, ownerID, jobID string, changes jobs.Changes) (jobs.Job, error)
	Move(ctx context.Context, ownerID string, job jobs.Job, to jobs.Stage) (jobs.Job, error)
	Restore(ctx context.Context, ownerID string, job jobs.Job) (jobs.Job, error)
	Delete(ctx context.Context, ownerID, jobID string) error
	DeleteAll(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
	InsertMany(ctx context.Context, ownerID string, items []jobs.Job) error
}

// Session identifies the authenticated owner a controller acts for. It is
// resolved once at login and handed to the controller at construction.
type Session struct {
	OwnerID  string
	UserName string
}
