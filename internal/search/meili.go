package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"jobtrack/api/internal/jobs"
)

const idxJobs = "jobtrack_jobs"

// Meili is the Meilisearch-backed job index.
type Meili struct {
	client  meili.ServiceManager
	logger  *slog.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the jobs index.
// An unreachable server is tolerated; the health loop picks it up later.
func NewMeili(url, apiKey string, logger *slog.Logger) *Meili {
	if logger == nil {
		logger = slog.Default()
	}
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		logger: logger.With(slog.String("component", "search")),
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", slog.String("url", url), slog.String("error", err.Error()))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxJobs,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create index (may already exist)", slog.String("index", idxJobs), slog.String("error", err.Error()))
	}

	index := m.client.Index(idxJobs)
	filterable := []interface{}{"userId", "stage", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", slog.String("error", err.Error()))
	}
	searchable := []string{"companyName", "position", "tags", "notes", "location"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", slog.String("error", err.Error()))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// ownerFilter scopes a query to one user and optionally one stage.
func ownerFilter(q Query) []string {
	filters := []string{fmt.Sprintf("userId = %q", q.OwnerID)}
	if q.Stage != "" {
		filters = append(filters, fmt.Sprintf("stage = %q", string(q.Stage)))
	}
	return filters
}

func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}
	if q.OwnerID == "" {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:              idxJobs,
			Query:                 q.Text,
			Limit:                 int64(q.limit()),
			Offset:                int64(q.offset()),
			Filter:                ownerFilter(q),
			AttributesToHighlight: []string{"notes", "companyName", "position"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit))
		}
	}
	return results, total, nil
}

func hitToResult(hit meili.Hit) Result {
	return Result{
		ID:          decodeString(hit, "id"),
		CompanyName: decodeString(hit, "companyName"),
		Position:    decodeString(hit, "position"),
		Stage:       jobs.NormalizeStage(decodeString(hit, "stage")),
		Status:      jobs.NormalizeStatus(decodeString(hit, "status")),
		Snippet:     firstNonBlank(decodeFormattedString(hit, "notes"), decodeString(hit, "notes")),
		Tags:        decodeStrings(hit, "tags"),
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeStrings(hit meili.Hit, key string) []string {
	out := []string{}
	raw, ok := hit[key]
	if !ok {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]any
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	value, _ := formatted[key].(string)
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexJobs adds or replaces applications in the index.
func (m *Meili) IndexJobs(records []JobRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxJobs).AddDocuments(records, nil)
	return err
}

// DeleteJobs removes applications from the index one by one.
func (m *Meili) DeleteJobs(ids []string) error {
	index := m.client.Index(idxJobs)
	for _, id := range ids {
		if _, err := index.DeleteDocument(id, nil); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return nil
}
