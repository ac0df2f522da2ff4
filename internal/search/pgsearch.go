package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"jobtrack/api/internal/jobs"
)

// PgSearch implements Searcher with case-insensitive pattern matching in
// Postgres. It is the fallback when Meilisearch is not reachable.
type PgSearch struct {
	db *sql.DB
}

func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

// likePattern escapes LIKE metacharacters in text and wraps it in wildcards.
func likePattern(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(text)) + "%"
}

func (p *PgSearch) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" || q.OwnerID == "" {
		return nil, 0, nil
	}

	where := `user_id = $1 AND (
		company_name ILIKE $2 OR position ILIKE $2 OR COALESCE(notes, '') ILIKE $2
		OR COALESCE(location, '') ILIKE $2 OR array_to_string(tags, ' ') ILIKE $2)`
	args := []any{q.OwnerID, likePattern(q.Text)}
	if q.Stage != "" {
		where += " AND stage = $3"
		args = append(args, string(q.Stage))
	}

	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM jobs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pg search count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id::text, company_name, position, stage, status, COALESCE(notes, ''), tags
		FROM jobs
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT %d OFFSET %d`, where, q.limit(), q.offset()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pg search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r      Result
			stage  string
			status string
			tags   pq.StringArray
		)
		if err := rows.Scan(&r.ID, &r.CompanyName, &r.Position, &stage, &status, &r.Snippet, &tags); err != nil {
			return nil, 0, fmt.Errorf("pg search scan: %w", err)
		}
		r.Stage = jobs.NormalizeStage(stage)
		r.Status = jobs.NormalizeStatus(status)
		r.Tags = jobs.NormalizeTags([]string(tags))
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns every application for a full reindex.
func (p *PgSearch) LoadAllRecords(ctx context.Context) ([]JobRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id::text, user_id::text, company_name, position, stage, status,
			COALESCE(location, ''), COALESCE(notes, ''), tags
		FROM jobs
	`)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	defer rows.Close()

	records := make([]JobRecord, 0)
	for rows.Next() {
		var (
			rec  JobRecord
			tags pq.StringArray
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.CompanyName, &rec.Position, &rec.Stage, &rec.Status, &rec.Location, &rec.Notes, &tags); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.Tags = jobs.NormalizeTags([]string(tags))
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return records, nil
}
