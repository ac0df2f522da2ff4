package search

import (
	"context"
	"log/slog"
	"sync"
)

// index is the Meilisearch side of the facade.
type index interface {
	Healthy() bool
	Search(q Query) ([]Result, int, error)
	IndexJobs(records []JobRecord) error
	DeleteJobs(ids []string) error
}

// fallback is the Postgres side of the facade.
type fallback interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	LoadAllRecords(ctx context.Context) ([]JobRecord, error)
}

// Service is the facade that tries Meilisearch first and falls back to Postgres.
type Service struct {
	index    index
	fallback fallback
	logger   *slog.Logger
	pending  sync.WaitGroup
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pg *PgSearch, logger *slog.Logger) *Service {
	s := &Service{logger: logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if meili != nil {
		s.index = meili
	}
	if pg != nil {
		s.fallback = pg
	}
	return s
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	empty := Response{Results: []Result{}, Query: q.Text}
	if q.OwnerID == "" {
		return empty
	}

	if s.index != nil && s.index.Healthy() {
		results, total, err := s.index.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		s.logger.Warn("meilisearch error, falling back to postgres", slog.String("error", err.Error()))
	}

	if s.fallback == nil {
		return empty
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.logger.Error("postgres search failed", slog.String("error", err.Error()))
		return empty
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "postgres"}
}

// IndexJobs pushes applications to Meilisearch without blocking the caller.
func (s *Service) IndexJobs(records ...JobRecord) {
	if s.index == nil || !s.index.Healthy() || len(records) == 0 {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.index.IndexJobs(records); err != nil {
			s.logger.Warn("index jobs", slog.Int("count", len(records)), slog.String("error", err.Error()))
		}
	}()
}

// DeleteJobs removes applications from Meilisearch without blocking the caller.
func (s *Service) DeleteJobs(ids ...string) {
	if s.index == nil || !s.index.Healthy() || len(ids) == 0 {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.index.DeleteJobs(ids); err != nil {
			s.logger.Warn("delete jobs from index", slog.Int("count", len(ids)), slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until index writes started by IndexJobs and DeleteJobs have
// finished. Short-lived processes call it before exiting.
func (s *Service) Wait() {
	s.pending.Wait()
}

// ReindexAllFromPG reindexes every application from Postgres into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.index == nil || !s.index.Healthy() || s.fallback == nil {
		return
	}
	records, err := s.fallback.LoadAllRecords(ctx)
	if err != nil {
		s.logger.Warn("reindex load failed", slog.String("error", err.Error()))
		return
	}
	if err := s.index.IndexJobs(records); err != nil {
		s.logger.Warn("reindex jobs", slog.String("error", err.Error()))
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
