package jobs

import (
	"encoding/json"
	"testing"
	"time"
)

func TestReconcile(t *testing.T) {
	t.Run("clears memory when not rejected", func(t *testing.T) {
		got := Reconcile(Job{Stage: StageOffer, Status: StatusActive, RejectedFromStage: stagePtr(StageFinal)})
		if got.RejectedFromStage != nil {
			t.Fatalf("expected rejectedFrom cleared, got %v", *got.RejectedFromStage)
		}
	})

	t.Run("rejected stage forces rejected status", func(t *testing.T) {
		got := Reconcile(Job{Stage: StageRejected, Status: StatusActive})
		if got.Status != StatusRejected {
			t.Fatalf("expected rejected status, got %q", got.Status)
		}
	})

	t.Run("rejected status moves card to rejected column", func(t *testing.T) {
		got := Reconcile(Job{Stage: StageTechnical, Status: StatusRejected})
		if got.Stage != StageRejected {
			t.Fatalf("expected rejected stage, got %q", got.Stage)
		}
		if got.RejectedFromStage == nil || *got.RejectedFromStage != StageTechnical {
			t.Fatalf("expected rejectedFrom technical, got %v", got.RejectedFromStage)
		}
	})

	t.Run("unknown values normalised", func(t *testing.T) {
		got := Reconcile(Job{Stage: Stage("Interview"), Status: Status("??"), Tags: []string{" x ", ""}})
		if got.Stage != StageApplied || got.Status != StatusActive {
			t.Fatalf("unexpected state: %+v", got.State())
		}
		if len(got.Tags) != 1 || got.Tags[0] != "x" {
			t.Fatalf("unexpected tags: %#v", got.Tags)
		}
	})
}

func TestNewJobValidate(t *testing.T) {
	err := NewJob{CompanyName: "  ", Position: ""}.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Fields["companyName"] == "" || verr.Fields["position"] == "" {
		t.Fatalf("expected both fields reported, got %#v", verr.Fields)
	}
	if err := (NewJob{CompanyName: "Acme", Position: "Engineer"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewJobBuildForcesInitialState(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	job := NewJob{
		CompanyName: " Acme ",
		Position:    "Engineer",
		Location:    "  ",
		Salary:      "$1",
		Tags:        "go, ,sql",
	}.Build("owner-1", now)

	if job.Stage != StageApplied || job.Status != StatusActive || job.RejectedFromStage != nil {
		t.Fatalf("unexpected state: %+v", job.State())
	}
	if job.CompanyName != "Acme" || job.OwnerID != "owner-1" || !job.AppliedDate.Equal(now) {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Location != nil {
		t.Fatalf("expected blank location to be nil")
	}
	if len(job.Tags) != 2 {
		t.Fatalf("expected two tags, got %#v", job.Tags)
	}
}

func TestPatchUnmarshalTracksPresence(t *testing.T) {
	var patch Patch
	if err := json.Unmarshal([]byte(`{"position":" Lead ","notes":null,"tags":"a,b"}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := patch.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	changes := patch.Changes()
	if changes.CompanyName != nil || changes.HasLocation || changes.HasSalary {
		t.Fatalf("unexpected fields present: %+v", changes)
	}
	if changes.Position == nil || *changes.Position != "Lead" {
		t.Fatalf("expected trimmed position, got %v", changes.Position)
	}
	if !changes.HasNotes || changes.Notes != nil {
		t.Fatalf("expected explicit null notes, got %+v", changes)
	}

	notes := "old"
	job := changes.Apply(Job{Position: "Dev", Stage: StageFinal, Status: StatusActive, Notes: &notes})
	if job.Notes != nil || job.Position != "Lead" || job.Stage != StageFinal {
		t.Fatalf("unexpected applied job: %+v", job)
	}
}

func TestPatchValidateRejectsBlankRequired(t *testing.T) {
	blank := " "
	if err := (Patch{CompanyName: &blank}).Validate(); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDemoJobsSatisfyModel(t *testing.T) {
	now := time.Now()
	for _, job := range append(DemoJobs("u", now), GuestJobs("u", now)...) {
		if job.OwnerID != "u" {
			t.Fatalf("owner not set on %s", job.CompanyName)
		}
		rejected := job.Status == StatusRejected
		if rejected != (job.RejectedFromStage != nil) {
			t.Fatalf("%s: rejectedFrom must be set only when rejected", job.CompanyName)
		}
		if (job.Stage == StageRejected) != rejected {
			t.Fatalf("%s: stage/status mismatch", job.CompanyName)
		}
	}
	if got := len(DemoJobs("u", now)); got != 5 {
		t.Fatalf("expected 5 demo jobs, got %d", got)
	}
}
