package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"jobtrack/api/internal/jobs"
)

type fakeIndex struct {
	mu        sync.Mutex
	healthy   bool
	searchFn  func(Query) ([]Result, int, error)
	indexed   []JobRecord
	deleted   []string
	indexedCh chan struct{}
}

func (f *fakeIndex) Healthy() bool { return f.healthy }

func (f *fakeIndex) Search(q Query) ([]Result, int, error) { return f.searchFn(q) }

func (f *fakeIndex) IndexJobs(records []JobRecord) error {
	f.mu.Lock()
	f.indexed = append(f.indexed, records...)
	f.mu.Unlock()
	if f.indexedCh != nil {
		f.indexedCh <- struct{}{}
	}
	return nil
}

func (f *fakeIndex) DeleteJobs(ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeFallback struct {
	searchFn func(context.Context, Query) ([]Result, int, error)
	records  []JobRecord
}

func (f *fakeFallback) Search(ctx context.Context, q Query) ([]Result, int, error) {
	return f.searchFn(ctx, q)
}

func (f *fakeFallback) LoadAllRecords(context.Context) ([]JobRecord, error) {
	return f.records, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSearchPrefersHealthyIndex(t *testing.T) {
	idx := &fakeIndex{healthy: true, searchFn: func(q Query) ([]Result, int, error) {
		return []Result{{ID: "j1", CompanyName: "Acme"}}, 1, nil
	}}
	fb := &fakeFallback{searchFn: func(context.Context, Query) ([]Result, int, error) {
		t.Fatal("fallback should not be used")
		return nil, 0, nil
	}}
	svc := &Service{index: idx, fallback: fb, logger: quietLogger()}

	resp := svc.Search(context.Background(), Query{OwnerID: "u1", Text: "acme"})
	if resp.Backend != "meilisearch" || resp.Total != 1 || resp.Results[0].ID != "j1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSearchFallsBackOnIndexError(t *testing.T) {
	idx := &fakeIndex{healthy: true, searchFn: func(Query) ([]Result, int, error) {
		return nil, 0, errors.New("boom")
	}}
	var gotOwner string
	fb := &fakeFallback{searchFn: func(_ context.Context, q Query) ([]Result, int, error) {
		gotOwner = q.OwnerID
		return nil, 0, nil
	}}
	svc := &Service{index: idx, fallback: fb, logger: quietLogger()}

	resp := svc.Search(context.Background(), Query{OwnerID: "u1", Text: "acme"})
	if resp.Backend != "postgres" || gotOwner != "u1" {
		t.Fatalf("unexpected response %+v (owner %q)", resp, gotOwner)
	}
	if resp.Results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}
}

func TestSearchWithoutOwnerReturnsNothing(t *testing.T) {
	svc := &Service{logger: quietLogger()}
	resp := svc.Search(context.Background(), Query{Text: "acme"})
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestIndexJobsIsAsync(t *testing.T) {
	idx := &fakeIndex{healthy: true, indexedCh: make(chan struct{}, 1)}
	svc := &Service{index: idx, logger: quietLogger()}

	svc.IndexJobs(RecordFromJob(jobs.Job{ID: "j1", OwnerID: "u1", CompanyName: "Acme", Stage: jobs.StageOffer}))
	select {
	case <-idx.indexedCh:
	case <-time.After(time.Second):
		t.Fatal("index call did not happen")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.indexed) != 1 || idx.indexed[0].UserID != "u1" || idx.indexed[0].Stage != "offer" {
		t.Fatalf("unexpected indexed records %+v", idx.indexed)
	}
}

func TestOwnerFilter(t *testing.T) {
	got := ownerFilter(Query{OwnerID: "u1", Stage: jobs.StageTechnical})
	if len(got) != 2 || got[0] != `userId = "u1"` || got[1] != `stage = "technical"` {
		t.Fatalf("ownerFilter() = %v", got)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	if got := likePattern(" 100%_off "); got != `%100\%\_off%` {
		t.Fatalf("likePattern() = %q", got)
	}
}

func TestRecordFromJobCopiesOptionalFields(t *testing.T) {
	notes := "call back"
	rec := RecordFromJob(jobs.Job{ID: "j1", Notes: &notes, Tags: []string{"go"}})
	if rec.Notes != "call back" || rec.Location != "" || len(rec.Tags) != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
}
