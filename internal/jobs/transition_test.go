package jobs

import (
	"errors"
	"testing"
)

func stagePtr(s Stage) *Stage { return &s }

func TestComputeMoveToRejectedRemembersStage(t *testing.T) {
	for _, info := range Stages() {
		if info.ID == StageRejected {
			continue
		}
		t.Run(string(info.ID), func(t *testing.T) {
			next, err := ComputeMove(State{Stage: info.ID, Status: StatusActive}, StageRejected)
			if err != nil {
				t.Fatalf("ComputeMove() error = %v", err)
			}
			if next.Stage != StageRejected || next.Status != StatusRejected {
				t.Fatalf("unexpected state: %+v", next)
			}
			if next.RejectedFrom == nil || *next.RejectedFrom != info.ID {
				t.Fatalf("expected rejectedFrom %q, got %v", info.ID, next.RejectedFrom)
			}
		})
	}
}

func TestComputeMoveOutOfRejectedReactivates(t *testing.T) {
	for _, from := range Stages() {
		for _, to := range Stages() {
			if to.ID == StageRejected {
				continue
			}
			cur := State{Stage: StageRejected, Status: StatusRejected, RejectedFrom: stagePtr(from.ID)}
			next, err := ComputeMove(cur, to.ID)
			if err != nil {
				t.Fatalf("ComputeMove(%s -> %s) error = %v", from.ID, to.ID, err)
			}
			if next.Stage != to.ID || next.Status != StatusActive || next.RejectedFrom != nil {
				t.Fatalf("ComputeMove(%s -> %s) = %+v", from.ID, to.ID, next)
			}
		}
	}
}

func TestComputeMoveKeepsStatusBetweenActiveStages(t *testing.T) {
	cur := State{Stage: StageOffer, Status: StatusAccepted}
	next, err := ComputeMove(cur, StageFinal)
	if err != nil {
		t.Fatalf("ComputeMove() error = %v", err)
	}
	if next.Stage != StageFinal || next.Status != StatusAccepted || next.RejectedFrom != nil {
		t.Fatalf("unexpected state: %+v", next)
	}
}

func TestComputeMoveRejectsReRejection(t *testing.T) {
	cur := State{Stage: StageRejected, Status: StatusRejected, RejectedFrom: stagePtr(StageTechnical)}
	next, err := ComputeMove(cur, StageRejected)
	if !errors.Is(err, ErrAlreadyRejected) {
		t.Fatalf("expected ErrAlreadyRejected, got %v", err)
	}
	if next != cur {
		t.Fatalf("expected state unchanged, got %+v", next)
	}
}

func TestComputeMoveUnknownStage(t *testing.T) {
	_, err := ComputeMove(State{Stage: StageApplied, Status: StatusActive}, Stage("interview"))
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
	if !IsTransitionError(err) {
		t.Fatal("expected IsTransitionError to be true")
	}
}

func TestComputeMoveSameStageIsNoop(t *testing.T) {
	cur := State{Stage: StageTechnical, Status: StatusActive}
	first, err := ComputeMove(cur, StageTechnical)
	if err != nil {
		t.Fatalf("ComputeMove() error = %v", err)
	}
	second, err := ComputeMove(first, StageTechnical)
	if err != nil {
		t.Fatalf("ComputeMove() error = %v", err)
	}
	if first != cur || second != cur {
		t.Fatalf("expected no-op, got %+v then %+v", first, second)
	}
}

func TestComputeRestore(t *testing.T) {
	tests := []struct {
		name string
		from *Stage
		want Stage
	}{
		{name: "remembered stage", from: stagePtr(StageHRInterview), want: StageHRInterview},
		{name: "missing memory falls back", from: nil, want: StageApplied},
		{name: "rejected memory falls back", from: stagePtr(StageRejected), want: StageApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := ComputeRestore(State{Stage: StageRejected, Status: StatusRejected, RejectedFrom: tt.from})
			if err != nil {
				t.Fatalf("ComputeRestore() error = %v", err)
			}
			if next.Stage != tt.want || next.Status != StatusActive || next.RejectedFrom != nil {
				t.Fatalf("unexpected state: %+v", next)
			}
		})
	}
}

func TestComputeRestoreRequiresRejected(t *testing.T) {
	cur := State{Stage: StageOffer, Status: StatusActive}
	next, err := ComputeRestore(cur)
	if !errors.Is(err, ErrNotRejected) {
		t.Fatalf("expected ErrNotRejected, got %v", err)
	}
	if next != cur {
		t.Fatalf("expected state unchanged, got %+v", next)
	}
}

func TestRejectThenRestoreRoundTrip(t *testing.T) {
	start := State{Stage: StageTechnical, Status: StatusActive}
	rejected, err := ComputeMove(start, StageRejected)
	if err != nil {
		t.Fatalf("ComputeMove() error = %v", err)
	}
	if rejected.RejectedFrom == nil || *rejected.RejectedFrom != StageTechnical {
		t.Fatalf("expected rejectedFrom technical, got %+v", rejected)
	}
	restored, err := ComputeRestore(rejected)
	if err != nil {
		t.Fatalf("ComputeRestore() error = %v", err)
	}
	if restored != start {
		t.Fatalf("expected %+v after restore, got %+v", start, restored)
	}
}
