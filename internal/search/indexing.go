package search

import (
	"context"

	"jobtrack/api/internal/board"
	"jobtrack/api/internal/jobs"
)

// Indexer receives the writes IndexedAdapter observes. Service implements it.
type Indexer interface {
	IndexJobs(records ...JobRecord)
	DeleteJobs(ids ...string)
}

// IndexedAdapter keeps the search index in step with every successful write
// made through a board. The API and the admin CLI both build their boards on
// it so the index does not depend on which one made the change.
type IndexedAdapter struct {
	board.Adapter
	index Indexer
}

func NewIndexedAdapter(next board.Adapter, index Indexer) *IndexedAdapter {
	return &IndexedAdapter{Adapter: next, index: index}
}

func (a *IndexedAdapter) Create(ctx context.Context, ownerID string, input jobs.NewJob) (jobs.Job, error) {
	job, err := a.Adapter.Create(ctx, ownerID, input)
	if err == nil {
		a.index.IndexJobs(RecordFromJob(job))
	}
	return job, err
}

func (a *IndexedAdapter) Update(ctx context.Context, ownerID, jobID string, changes jobs.Changes) (jobs.Job, error) {
	job, err := a.Adapter.Update(ctx, ownerID, jobID, changes)
	if err == nil {
		a.index.IndexJobs(RecordFromJob(job))
	}
	return job, err
}

func (a *IndexedAdapter) Move(ctx context.Context, ownerID string, job jobs.Job, to jobs.Stage) (jobs.Job, error) {
	moved, err := a.Adapter.Move(ctx, ownerID, job, to)
	if err == nil {
		a.index.IndexJobs(RecordFromJob(moved))
	}
	return moved, err
}

func (a *IndexedAdapter) Restore(ctx context.Context, ownerID string, job jobs.Job) (jobs.Job, error) {
	restored, err := a.Adapter.Restore(ctx, ownerID, job)
	if err == nil {
		a.index.IndexJobs(RecordFromJob(restored))
	}
	return restored, err
}

func (a *IndexedAdapter) Delete(ctx context.Context, ownerID, jobID string) error {
	if err := a.Adapter.Delete(ctx, ownerID, jobID); err != nil {
		return err
	}
	a.index.DeleteJobs(jobID)
	return nil
}

func (a *IndexedAdapter) DeleteAll(ctx context.Context, ownerID string) error {
	existing, fetchErr := a.Adapter.FetchAll(ctx, ownerID)
	if err := a.Adapter.DeleteAll(ctx, ownerID); err != nil {
		return err
	}
	if fetchErr == nil {
		ids := make([]string, 0, len(existing))
		for _, job := range existing {
			ids = append(ids, job.ID)
		}
		a.index.DeleteJobs(ids...)
	}
	return nil
}

// InsertMany reindexes the owner's whole board afterwards since seeded rows
// get their ids from the store.
func (a *IndexedAdapter) InsertMany(ctx context.Context, ownerID string, items []jobs.Job) error {
	if err := a.Adapter.InsertMany(ctx, ownerID, items); err != nil {
		return err
	}
	if stored, err := a.Adapter.FetchAll(ctx, ownerID); err == nil {
		records := make([]JobRecord, 0, len(stored))
		for _, job := range stored {
			records = append(records, RecordFromJob(job))
		}
		a.index.IndexJobs(records...)
	}
	return nil
}
