package jobs

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStage    = errors.New("unknown stage")
	ErrAlreadyRejected = errors.New("application is already rejected")
	ErrNotRejected     = errors.New("application is not rejected")
)

// State is the part of an application the transition rules operate on.
type State struct {
	Stage        Stage  `json:"stage"`
	Status       Status `json:"status"`
	RejectedFrom *Stage `json:"rejectedFromStage"`
}

// Equal compares by value, including the remembered stage.
func (s State) Equal(o State) bool {
	if s.Stage != o.Stage || s.Status != o.Status {
		return false
	}
	if s.RejectedFrom == nil || o.RejectedFrom == nil {
		return s.RejectedFrom == nil && o.RejectedFrom == nil
	}
	return *s.RejectedFrom == *o.RejectedFrom
}

// ComputeMove returns the state after moving cur to the requested stage.
//
// Moving into rejected remembers the stage being left. Moving out of rejected
// reactivates the application and forgets that memory. Any other move only
// changes the stage. Rejecting an application that is already rejected is an
// error, and a move to the current stage returns cur unchanged.
func ComputeMove(cur State, to Stage) (State, error) {
	if !to.Valid() {
		return cur, fmt.Errorf("%w: %q", ErrUnknownStage, to)
	}

	if to == StageRejected {
		if cur.Stage == StageRejected || cur.Status == StatusRejected {
			return cur, ErrAlreadyRejected
		}
		from := cur.Stage
		return State{Stage: StageRejected, Status: StatusRejected, RejectedFrom: &from}, nil
	}

	if cur.Stage == StageRejected {
		return State{Stage: to, Status: StatusActive}, nil
	}

	if cur.Stage == to {
		return cur, nil
	}
	return State{Stage: to, Status: cur.Status, RejectedFrom: cur.RejectedFrom}, nil
}

// ComputeRestore returns a rejected application to the stage it was rejected
// from, or to the initial stage when that is unknown.
func ComputeRestore(cur State) (State, error) {
	if cur.Status != StatusRejected {
		return cur, ErrNotRejected
	}
	back := InitialStage
	if cur.RejectedFrom != nil && cur.RejectedFrom.Valid() && *cur.RejectedFrom != StageRejected {
		back = *cur.RejectedFrom
	}
	return State{Stage: back, Status: StatusActive}, nil
}

// IsTransitionError reports whether err is a rule violation rather than a
// storage or transport failure.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrUnknownStage) || errors.Is(err, ErrAlreadyRejected) || errors.Is(err, ErrNotRejected)
}
