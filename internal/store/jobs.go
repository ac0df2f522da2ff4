package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"jobtrack/api/internal/board"
	"jobtrack/api/internal/jobs"
	"jobtrack/api/internal/util"
)

// errJobMissing matches both ErrNotFound and board.ErrJobNotFound, so the
// board can tell a job removed elsewhere from a failed write.
var errJobMissing = fmt.Errorf("%w: %w", ErrNotFound, board.ErrJobNotFound)

// JobStore persists job applications. Every query is scoped by owner id.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// Jobs returns the job store sharing this connection pool.
func (s *PostgresStore) Jobs() *JobStore {
	return NewJobStore(s.db)
}

const jobColumns = `id, user_id, company_name, position, stage, status, rejected_from_stage,
	location, salary, tags, notes, applied_date, accepted_at, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (jobs.Job, error) {
	var (
		job          jobs.Job
		stage        string
		status       string
		rejectedFrom sql.NullString
		location     sql.NullString
		salary       sql.NullString
		notes        sql.NullString
		tags         pq.StringArray
		acceptedAt   sql.NullTime
	)
	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.CompanyName,
		&job.Position,
		&stage,
		&status,
		&rejectedFrom,
		&location,
		&salary,
		&tags,
		&notes,
		&job.AppliedDate,
		&acceptedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Job{}, ErrNotFound
	}
	if err != nil {
		return jobs.Job{}, err
	}

	job.Stage = jobs.Stage(stage)
	job.Status = jobs.Status(status)
	if rejectedFrom.Valid {
		from := jobs.Stage(rejectedFrom.String)
		job.RejectedFromStage = &from
	}
	job.Location = nullableString(location)
	job.Salary = nullableString(salary)
	job.Notes = nullableString(notes)
	job.Tags = []string(tags)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		job.AcceptedAt = &t
	}
	return jobs.Reconcile(job), nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func stageArg(s *jobs.Stage) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func tagsArg(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

// FetchAll returns the owner's applications, newest first.
func (s *JobStore) FetchAll(ctx context.Context, ownerID string) ([]jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	defer rows.Close()

	items := make([]jobs.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		items = append(items, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	return items, nil
}

func (s *JobStore) Get(ctx context.Context, ownerID, jobID string) (jobs.Job, error) {
	if !util.IsUUID(jobID) {
		return jobs.Job{}, errJobMissing
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`, jobID, ownerID)
	job, err := scanJob(row)
	if errors.Is(err, ErrNotFound) {
		return jobs.Job{}, errJobMissing
	}
	if err != nil {
		return jobs.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Create inserts a new application. Stage, status and rejection memory
// are fixed by jobs.NewJob.Build regardless of input.
func (s *JobStore) Create(ctx context.Context, ownerID string, input jobs.NewJob) (jobs.Job, error) {
	if err := input.Validate(); err != nil {
		return jobs.Job{}, err
	}
	job := input.Build(ownerID, time.Now().UTC())
	job.ID = util.NewID("")
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO jobs (id, user_id, company_name, position, stage, status, rejected_from_stage,
			location, salary, tags, notes, applied_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8, $9, $10, $11, $11, $11)
		RETURNING `+jobColumns,
		job.ID,
		ownerID,
		job.CompanyName,
		job.Position,
		string(job.Stage),
		string(job.Status),
		job.Location,
		job.Salary,
		tagsArg(job.Tags),
		job.Notes,
		job.AppliedDate,
	)
	created, err := scanJob(row)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("create job: %w", err)
	}
	return created, nil
}

// Update writes only the supplied fields; stage and status are never touched.
func (s *JobStore) Update(ctx context.Context, ownerID, jobID string, changes jobs.Changes) (jobs.Job, error) {
	if changes.Empty() {
		return s.Get(ctx, ownerID, jobID)
	}
	if !util.IsUUID(jobID) {
		return jobs.Job{}, errJobMissing
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.CompanyName != nil {
		add("company_name", *changes.CompanyName)
	}
	if changes.Position != nil {
		add("position", *changes.Position)
	}
	if changes.HasLocation {
		add("location", changes.Location)
	}
	if changes.HasSalary {
		add("salary", changes.Salary)
	}
	if changes.HasTags {
		add("tags", tagsArg(changes.Tags))
	}
	if changes.HasNotes {
		add("notes", changes.Notes)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, jobID, ownerID)

	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), jobColumns)
	updated, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jobs.Job{}, errJobMissing
		}
		return jobs.Job{}, fmt.Errorf("update job: %w", err)
	}
	return updated, nil
}

// Move applies jobs.ComputeMove to the stored state of job and persists it.
// The row is locked for the duration so concurrent moves cannot interleave.
func (s *JobStore) Move(ctx context.Context, ownerID string, job jobs.Job, to jobs.Stage) (jobs.Job, error) {
	return s.transition(ctx, ownerID, job.ID, "move job", func(cur jobs.State) (jobs.State, error) {
		return jobs.ComputeMove(cur, to)
	})
}

// Restore applies jobs.ComputeRestore to the stored state of job.
func (s *JobStore) Restore(ctx context.Context, ownerID string, job jobs.Job) (jobs.Job, error) {
	return s.transition(ctx, ownerID, job.ID, "restore job", jobs.ComputeRestore)
}

func (s *JobStore) transition(ctx context.Context, ownerID, jobID, op string, next func(jobs.State) (jobs.State, error)) (jobs.Job, error) {
	if !util.IsUUID(jobID) {
		return jobs.Job{}, errJobMissing
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanJob(tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, jobID, ownerID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return jobs.Job{}, errJobMissing
		}
		return jobs.Job{}, fmt.Errorf("%s: load: %w", op, err)
	}

	state, err := next(current.State())
	if err != nil {
		return jobs.Job{}, err
	}
	if state.Equal(current.State()) {
		return current, nil
	}

	updated, err := scanJob(tx.QueryRowContext(ctx, `
		UPDATE jobs
		SET stage = $1, status = $2, rejected_from_stage = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING `+jobColumns,
		string(state.Stage),
		string(state.Status),
		stageArg(state.RejectedFrom),
		jobID,
		ownerID,
	))
	if err != nil {
		return jobs.Job{}, fmt.Errorf("%s: update: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return jobs.Job{}, fmt.Errorf("%s: commit: %w", op, err)
	}
	return updated, nil
}

func (s *JobStore) Delete(ctx context.Context, ownerID, jobID string) error {
	if !util.IsUUID(jobID) {
		return errJobMissing
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, jobID, ownerID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if affected == 0 {
		return errJobMissing
	}
	return nil
}

func (s *JobStore) DeleteAll(ctx context.Context, ownerID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE user_id = $1`, ownerID); err != nil {
		return fmt.Errorf("delete all jobs: %w", err)
	}
	return nil
}

func (s *JobStore) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE user_id = $1`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// InsertMany writes prepared rows in one transaction, keeping their stage,
// status and timestamps. Used for seeding demo data.
func (s *JobStore) InsertMany(ctx context.Context, ownerID string, items []jobs.Job) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert jobs: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (id, user_id, company_name, position, stage, status, rejected_from_stage,
			location, salary, tags, notes, applied_date, accepted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`)
	if err != nil {
		return fmt.Errorf("insert jobs: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, item := range items {
		job := jobs.Reconcile(item)
		if job.ID == "" {
			job.ID = util.NewID("")
		}
		if job.CreatedAt.IsZero() {
			job.CreatedAt = now
		}
		if job.UpdatedAt.IsZero() {
			job.UpdatedAt = job.CreatedAt
		}
		if job.AppliedDate.IsZero() {
			job.AppliedDate = job.CreatedAt
		}
		if _, err := stmt.ExecContext(ctx,
			job.ID,
			ownerID,
			job.CompanyName,
			job.Position,
			string(job.Stage),
			string(job.Status),
			stageArg(job.RejectedFromStage),
			job.Location,
			job.Salary,
			tagsArg(job.Tags),
			job.Notes,
			job.AppliedDate,
			job.AcceptedAt,
			job.CreatedAt,
			job.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert job %q: %w", job.CompanyName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert jobs: commit: %w", err)
	}
	return nil
}
