package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"jobtrack/api/internal/jobs"
)

// Column is one stage column of the board.
type Column struct {
	jobs.StageInfo
	Jobs []jobs.Job `json:"jobs"`
}

// Snapshot is a copy of the controller state for rendering. Busy maps job
// ids to the action holding them; InFlight lists board-wide actions.
type Snapshot struct {
	OwnerID       string            `json:"ownerId"`
	Loaded        bool              `json:"loaded"`
	LoadedAt      time.Time         `json:"loadedAt"`
	Total         int               `json:"total"`
	Columns       []Column          `json:"columns"`
	Busy          map[string]Action `json:"busy"`
	InFlight      []Action          `json:"inFlight"`
	PendingDelete *jobs.Job         `json:"pendingDelete"`
	LastError     *ActionError      `json:"lastError"`
	Notice        *Notice           `json:"notice"`
}

// Job returns the job with id from the snapshot.
func (s Snapshot) Job(id string) (jobs.Job, bool) {
	for _, col := range s.Columns {
		for _, job := range col.Jobs {
			if job.ID == id {
				return job, true
			}
		}
	}
	return jobs.Job{}, false
}

// SeedResult reports what a seed request did. Seeded is false with Existing
// set when the owner already had applications.
type SeedResult struct {
	Seeded   bool `json:"seeded"`
	Inserted int  `json:"inserted"`
	Existing int  `json:"existing"`
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSeedData replaces the demo rows inserted by Seed.
func WithSeedData(build func(ownerID string, now time.Time) []jobs.Job) Option {
	return func(c *Controller) {
		if build != nil {
			c.seedData = build
		}
	}
}

// Controller owns one user's board. The mutex guards markers and the cached
// list only; adapter calls always run without it so actions on different
// jobs proceed concurrently.
type Controller struct {
	adapter  Adapter
	logger   *slog.Logger
	now      func() time.Time
	seedData func(string, time.Time) []jobs.Job

	mu            sync.Mutex
	session       Session
	ended         bool
	items         []jobs.Job
	loaded        bool
	loadedAt      time.Time
	busy          map[string]Action
	global        map[Action]int
	pendingDelete string
	lastErr       *ActionError
	notice        *Notice
}

func New(session Session, adapter Adapter, opts ...Option) (*Controller, error) {
	if strings.TrimSpace(session.OwnerID) == "" {
		return nil, ErrNoSession
	}
	if adapter == nil {
		return nil, errors.New("board: adapter is required")
	}
	c := &Controller{
		adapter:  adapter,
		logger:   slog.Default(),
		now:      time.Now,
		seedData: jobs.DemoJobs,
		session:  session,
		busy:     make(map[string]Action),
		global:   make(map[Action]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("owner_id", session.OwnerID))
	return c, nil
}

// End invalidates the controller. Every later call fails with ErrNoSession.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = true
	c.pendingDelete = ""
}

func (c *Controller) ownerLocked() (string, error) {
	if c.ended || c.session.OwnerID == "" {
		return "", ErrNoSession
	}
	return c.session.OwnerID, nil
}

func (c *Controller) findLocked(jobID string) (jobs.Job, bool) {
	for _, job := range c.items {
		if job.ID == jobID {
			return job, true
		}
	}
	return jobs.Job{}, false
}

// acquire sets the in-flight marker for a single job.
func (c *Controller) acquire(jobID string, action Action) (string, jobs.Job, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, err := c.ownerLocked()
	if err != nil {
		return "", jobs.Job{}, nil, err
	}
	if n := c.global[ActionDeletingAll]; n > 0 {
		return "", jobs.Job{}, nil, &BusyError{Holder: ActionDeletingAll}
	}
	if n := c.global[ActionSeeding]; n > 0 {
		return "", jobs.Job{}, nil, &BusyError{Holder: ActionSeeding}
	}
	if holder, ok := c.busy[jobID]; ok {
		return "", jobs.Job{}, nil, &BusyError{JobID: jobID, Holder: holder}
	}
	job, ok := c.findLocked(jobID)
	if !ok {
		return "", jobs.Job{}, nil, ErrJobNotFound
	}
	c.busy[jobID] = action
	release := func() {
		c.mu.Lock()
		delete(c.busy, jobID)
		c.mu.Unlock()
	}
	return owner, job, release, nil
}

// acquireGlobal sets a board-wide marker. Delete-all and seed need the whole
// board idle; add only excludes another add and the bulk actions.
func (c *Controller) acquireGlobal(action Action) (string, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, err := c.ownerLocked()
	if err != nil {
		return "", nil, err
	}
	for _, holder := range []Action{ActionDeletingAll, ActionSeeding} {
		if c.global[holder] > 0 {
			return "", nil, &BusyError{Holder: holder}
		}
	}
	switch action {
	case ActionDeletingAll, ActionSeeding:
		if c.global[ActionAdding] > 0 {
			return "", nil, &BusyError{Holder: ActionAdding}
		}
		for jobID, holder := range c.busy {
			return "", nil, &BusyError{JobID: jobID, Holder: holder}
		}
	case ActionAdding:
		if c.global[ActionAdding] > 0 {
			return "", nil, &BusyError{Holder: ActionAdding}
		}
	}
	c.global[action]++
	release := func() {
		c.mu.Lock()
		c.global[action]--
		if c.global[action] <= 0 {
			delete(c.global, action)
		}
		c.mu.Unlock()
	}
	return owner, release, nil
}

// Load fetches the full list from the adapter and replaces the cached one.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	owner, err := c.ownerLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := c.refetch(ctx, owner); err != nil {
		return c.fail(ActionLoading, "", err)
	}
	return nil
}

// refetch is the cache invalidation step. Whichever fetch completes last
// determines the list, even if it was started first.
func (c *Controller) refetch(ctx context.Context, owner string) error {
	items, err := c.adapter.FetchAll(ctx, owner)
	if err != nil {
		return err
	}
	sorted := make([]jobs.Job, len(items))
	for i, item := range items {
		sorted[i] = jobs.Reconcile(item)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return ErrNoSession
	}
	c.items = sorted
	c.loaded = true
	c.loadedAt = c.now()
	if c.pendingDelete != "" {
		if _, ok := c.findLocked(c.pendingDelete); !ok {
			c.pendingDelete = ""
		}
	}
	return nil
}

// afterSuccess refetches once a mutation has been persisted. A failed
// refetch is surfaced like any other persistence failure but does not turn
// the already persisted mutation into an error.
func (c *Controller) afterSuccess(ctx context.Context, owner string, action Action, jobID string) {
	if err := c.refetch(ctx, owner); err != nil {
		if errors.Is(err, ErrNoSession) {
			return
		}
		_ = c.fail(ActionRefreshing, jobID, err)
		return
	}
	c.logger.Debug("board action completed", slog.String("action", string(action)), slog.String("job_id", jobID))
}

// stale reports adapter rejections that mean the cached list no longer
// matches what is stored: a rule violation against the stored state, or a
// job removed elsewhere.
func stale(err error) bool {
	return jobs.IsTransitionError(err) || errors.Is(err, ErrJobNotFound)
}

// resync refetches after a stale rejection so the next snapshot shows the
// stored state. The rejection itself is returned to the caller unchanged.
func (c *Controller) resync(ctx context.Context, owner string, action Action, jobID string, err error) error {
	c.logger.Info("board out of date, refetching",
		slog.String("action", string(action)),
		slog.String("job_id", jobID),
		slog.String("reason", err.Error()),
	)
	if fetchErr := c.refetch(ctx, owner); fetchErr != nil && !errors.Is(fetchErr, ErrNoSession) {
		_ = c.fail(ActionRefreshing, jobID, fetchErr)
	}
	return err
}

// fail records err as the dismissible board error and returns it wrapped.
func (c *Controller) fail(action Action, jobID string, err error) error {
	actionErr := &ActionError{
		Action:  action,
		JobID:   jobID,
		Message: humanMessage(action),
		At:      c.now(),
		Err:     err,
	}
	c.mu.Lock()
	c.lastErr = actionErr
	c.mu.Unlock()
	c.logger.Warn("board action failed",
		slog.String("action", string(action)),
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
	return actionErr
}

func humanMessage(action Action) string {
	var verb string
	switch action {
	case ActionLoading, ActionRefreshing:
		verb = "load your applications"
	case ActionAdding:
		verb = "add the application"
	case ActionUpdating:
		verb = "save your changes"
	case ActionMoving:
		verb = "move the application"
	case ActionRestoring:
		verb = "restore the application"
	case ActionDeleting:
		verb = "delete the application"
	case ActionDeletingAll:
		verb = "delete all applications"
	case ActionSeeding:
		verb = "add the demo applications"
	default:
		verb = "complete the action"
	}
	return fmt.Sprintf("Could not %s. Please try again.", verb)
}

// Add creates a new application. Validation problems are returned without
// touching persistence or the board error.
func (c *Controller) Add(ctx context.Context, input jobs.NewJob) (jobs.Job, error) {
	if err := input.Validate(); err != nil {
		return jobs.Job{}, err
	}
	owner, release, err := c.acquireGlobal(ActionAdding)
	if err != nil {
		return jobs.Job{}, err
	}
	defer release()

	created, err := c.adapter.Create(ctx, owner, input)
	if err != nil {
		return jobs.Job{}, c.fail(ActionAdding, "", err)
	}
	c.afterSuccess(ctx, owner, ActionAdding, created.ID)
	return created, nil
}

// Edit patches the supplied fields of a job.
func (c *Controller) Edit(ctx context.Context, jobID string, patch jobs.Patch) (jobs.Job, error) {
	if err := patch.Validate(); err != nil {
		return jobs.Job{}, err
	}
	owner, _, release, err := c.acquire(jobID, ActionUpdating)
	if err != nil {
		return jobs.Job{}, err
	}
	defer release()

	updated, err := c.adapter.Update(ctx, owner, jobID, patch.Changes())
	if stale(err) {
		return jobs.Job{}, c.resync(ctx, owner, ActionUpdating, jobID, err)
	}
	if err != nil {
		return jobs.Job{}, c.fail(ActionUpdating, jobID, err)
	}
	c.afterSuccess(ctx, owner, ActionUpdating, jobID)
	return updated, nil
}

// Move sends a job to another stage. Rule violations are reported before
// dispatch; a move to the current stage is a no-op. A violation the adapter
// finds against the stored row is returned as is after a refetch.
func (c *Controller) Move(ctx context.Context, jobID string, to jobs.Stage) (jobs.Job, error) {
	owner, job, release, err := c.acquire(jobID, ActionMoving)
	if err != nil {
		return jobs.Job{}, err
	}
	defer release()

	next, err := jobs.ComputeMove(job.State(), to)
	if err != nil {
		return jobs.Job{}, err
	}
	if next.Equal(job.State()) {
		return job, nil
	}

	moved, err := c.adapter.Move(ctx, owner, job, to)
	if stale(err) {
		return jobs.Job{}, c.resync(ctx, owner, ActionMoving, jobID, err)
	}
	if err != nil {
		return jobs.Job{}, c.fail(ActionMoving, jobID, err)
	}
	c.afterSuccess(ctx, owner, ActionMoving, jobID)
	return moved, nil
}

// Restore returns a rejected job to the stage it was rejected from.
func (c *Controller) Restore(ctx context.Context, jobID string) (jobs.Job, error) {
	owner, job, release, err := c.acquire(jobID, ActionRestoring)
	if err != nil {
		return jobs.Job{}, err
	}
	defer release()

	if _, err := jobs.ComputeRestore(job.State()); err != nil {
		return jobs.Job{}, err
	}

	restored, err := c.adapter.Restore(ctx, owner, job)
	if stale(err) {
		return jobs.Job{}, c.resync(ctx, owner, ActionRestoring, jobID, err)
	}
	if err != nil {
		return jobs.Job{}, c.fail(ActionRestoring, jobID, err)
	}
	c.afterSuccess(ctx, owner, ActionRestoring, jobID)
	return restored, nil
}

// RequestDelete opens the confirmation step for a job. Nothing is persisted
// until ConfirmDelete.
func (c *Controller) RequestDelete(jobID string) (jobs.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.ownerLocked(); err != nil {
		return jobs.Job{}, err
	}
	if c.global[ActionDeletingAll] > 0 {
		return jobs.Job{}, &BusyError{Holder: ActionDeletingAll}
	}
	if holder, ok := c.busy[jobID]; ok {
		return jobs.Job{}, &BusyError{JobID: jobID, Holder: holder}
	}
	job, ok := c.findLocked(jobID)
	if !ok {
		return jobs.Job{}, ErrJobNotFound
	}
	c.pendingDelete = jobID
	return job, nil
}

// CancelDelete closes the confirmation step without side effects.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

// ConfirmDelete deletes the job awaiting confirmation. When jobID is not
// empty it must match the pending job.
func (c *Controller) ConfirmDelete(ctx context.Context, jobID string) error {
	c.mu.Lock()
	pending := c.pendingDelete
	c.mu.Unlock()
	if pending == "" {
		return ErrNoPendingDelete
	}
	if jobID != "" && jobID != pending {
		return ErrDeleteNotPending
	}

	owner, _, release, err := c.acquire(pending, ActionDeleting)
	if err != nil {
		return err
	}
	defer release()

	c.mu.Lock()
	if c.pendingDelete == pending {
		c.pendingDelete = ""
	}
	c.mu.Unlock()

	if err := c.adapter.Delete(ctx, owner, pending); err != nil {
		if stale(err) {
			return c.resync(ctx, owner, ActionDeleting, pending, err)
		}
		return c.fail(ActionDeleting, pending, err)
	}
	c.afterSuccess(ctx, owner, ActionDeleting, pending)
	return nil
}

// DeleteAll removes every application of the owner. It needs the board idle.
func (c *Controller) DeleteAll(ctx context.Context) error {
	owner, release, err := c.acquireGlobal(ActionDeletingAll)
	if err != nil {
		return err
	}
	defer release()

	c.CancelDelete()
	if err := c.adapter.DeleteAll(ctx, owner); err != nil {
		return c.fail(ActionDeletingAll, "", err)
	}
	c.afterSuccess(ctx, owner, ActionDeletingAll, "")
	return nil
}

// Seed inserts demo applications into an empty board. If the owner already
// has applications nothing is written and a notice is recorded instead.
func (c *Controller) Seed(ctx context.Context) (SeedResult, error) {
	owner, release, err := c.acquireGlobal(ActionSeeding)
	if err != nil {
		return SeedResult{}, err
	}
	defer release()

	existing, err := c.adapter.Count(ctx, owner)
	if err != nil {
		return SeedResult{}, c.fail(ActionSeeding, "", err)
	}
	if existing > 0 {
		notice := &Notice{
			Code:    NoticeAlreadyHasJobs,
			Message: fmt.Sprintf("You already have %d job(s). Seeding skipped.", existing),
		}
		c.mu.Lock()
		c.notice = notice
		c.mu.Unlock()
		c.logger.Info("seed skipped", slog.Int("existing", existing))
		return SeedResult{Seeded: false, Existing: existing}, nil
	}

	items := c.seedData(owner, c.now())
	if err := c.adapter.InsertMany(ctx, owner, items); err != nil {
		return SeedResult{}, c.fail(ActionSeeding, "", err)
	}
	c.afterSuccess(ctx, owner, ActionSeeding, "")
	return SeedResult{Seeded: true, Inserted: len(items)}, nil
}

// DismissError clears the board error and any notice.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastErr = nil
	c.notice = nil
	c.mu.Unlock()
}

// BusyAction reports the action holding jobID, if any.
func (c *Controller) BusyAction(jobID string) (Action, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	action, ok := c.busy[jobID]
	return action, ok
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		OwnerID:  c.session.OwnerID,
		Loaded:   c.loaded,
		LoadedAt: c.loadedAt,
		Total:    len(c.items),
		Busy:     make(map[string]Action, len(c.busy)),
		InFlight: make([]Action, 0, len(c.global)),
	}
	for id, action := range c.busy {
		snap.Busy[id] = action
	}
	for action := range c.global {
		snap.InFlight = append(snap.InFlight, action)
	}
	sort.Slice(snap.InFlight, func(i, j int) bool { return snap.InFlight[i] < snap.InFlight[j] })

	for _, info := range jobs.Stages() {
		col := Column{StageInfo: info, Jobs: []jobs.Job{}}
		for _, job := range c.items {
			if job.Stage == info.ID {
				col.Jobs = append(col.Jobs, copyJob(job))
			}
		}
		snap.Columns = append(snap.Columns, col)
	}

	if c.pendingDelete != "" {
		if job, ok := c.findLocked(c.pendingDelete); ok {
			cp := copyJob(job)
			snap.PendingDelete = &cp
		}
	}
	if c.lastErr != nil {
		cp := *c.lastErr
		snap.LastError = &cp
	}
	if c.notice != nil {
		cp := *c.notice
		snap.Notice = &cp
	}
	return snap
}

// Jobs returns the cached list, newest first.
func (c *Controller) Jobs() []jobs.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]jobs.Job, len(c.items))
	for i, job := range c.items {
		out[i] = copyJob(job)
	}
	return out
}

func copyJob(job jobs.Job) jobs.Job {
	if job.Tags != nil {
		job.Tags = append([]string(nil), job.Tags...)
	}
	return job
}
