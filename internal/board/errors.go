package board

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSession        = errors.New("no authenticated session")
	ErrBusy             = errors.New("another action is in progress")
	ErrJobNotFound      = errors.New("job is not on the board")
	ErrNoPendingDelete  = errors.New("no delete is awaiting confirmation")
	ErrDeleteNotPending = errors.New("job is not awaiting delete confirmation")
)

// Action names an in-flight operation.
type Action string

const (
	ActionLoading     Action = "loading"
	ActionAdding      Action = "adding"
	ActionUpdating    Action = "updating"
	ActionMoving      Action = "moving"
	ActionRestoring   Action = "restoring"
	ActionDeleting    Action = "deleting"
	ActionDeletingAll Action = "deleting-all"
	ActionSeeding     Action = "seeding"
	ActionRefreshing  Action = "refreshing"
)

// BusyError is returned when an action is refused because another one holds
// the marker it needs.
type BusyError struct {
	JobID  string
	Holder Action
}

func (e *BusyError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("%s: board is %s", ErrBusy, e.Holder)
	}
	return fmt.Sprintf("%s: job %s is %s", ErrBusy, e.JobID, e.Holder)
}

func (e *BusyError) Unwrap() error { return ErrBusy }

// ActionError is a persistence failure captured at the action boundary. The
// board keeps its last fetched list and shows Message until dismissed.
// Message is safe to show to users; Err carries the cause for logs.
type ActionError struct {
	Action  Action    `json:"action"`
	JobID   string    `json:"jobId,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	Err     error     `json:"-"`
}

func (e *ActionError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("%s %s: %v", e.Action, e.JobID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Notice is an informational outcome that is not a failure.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const NoticeAlreadyHasJobs = "ALREADY_HAS_JOBS"
