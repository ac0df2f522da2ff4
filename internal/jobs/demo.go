package jobs

import "time"

func strPtr(v string) *string { return &v }

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DemoJobs returns the sample board used by the seed action.
func DemoJobs(ownerID string, now time.Time) []Job {
	applied := StageApplied
	items := []Job{
		{
			CompanyName: "Google",
			Position:    "Frontend Developer",
			Stage:       StageApplied,
			Status:      StatusActive,
			AppliedDate: date(2024, time.January, 15),
			Salary:      strPtr("$120,000"),
			Location:    strPtr("Remote"),
			Tags:        []string{"React", "TypeScript", "Senior"},
		},
		{
			CompanyName: "Microsoft",
			Position:    "Full Stack Engineer",
			Stage:       StageApplied,
			Status:      StatusActive,
			AppliedDate: date(2024, time.January, 10),
			Salary:      strPtr("$110,000"),
			Location:    strPtr("Seattle, WA"),
			Tags:        []string{"Node.js", "React", "Azure"},
		},
		{
			CompanyName: "Amazon",
			Position:    "Backend Developer",
			Stage:       StageHRInterview,
			Status:      StatusActive,
			AppliedDate: date(2024, time.January, 5),
			Salary:      strPtr("$115,000"),
			Location:    strPtr("New York, NY"),
		},
		{
			CompanyName:       "Startup XYZ",
			Position:          "React Developer",
			Stage:             StageRejected,
			Status:            StatusRejected,
			RejectedFromStage: &applied,
			AppliedDate:       date(2023, time.December, 20),
			Salary:            strPtr("$90,000"),
			Location:          strPtr("Remote"),
		},
		{
			CompanyName: "Apple",
			Position:    "iOS Developer",
			Stage:       StageOffer,
			Status:      StatusAccepted,
			AppliedDate: date(2024, time.January, 12),
			Salary:      strPtr("$130,000"),
			Location:    strPtr("Cupertino, CA"),
			Tags:        []string{"Swift", "UIKit"},
		},
	}
	return prepareSeed(ownerID, now, items)
}

// GuestJobs returns the small board a fresh guest account starts with.
func GuestJobs(ownerID string, now time.Time) []Job {
	applied := StageApplied
	items := []Job{
		{
			CompanyName: "Demo Company",
			Position:    "Frontend Developer",
			Stage:       StageApplied,
			Status:      StatusActive,
			AppliedDate: now,
			Location:    strPtr("Remote"),
			Notes:       strPtr("Demo job, try moving or editing it."),
			Tags:        []string{"React", "TypeScript"},
		},
		{
			CompanyName: "Bluefin",
			Position:    "React Engineer",
			Stage:       StageHRInterview,
			Status:      StatusActive,
			AppliedDate: now,
			Location:    strPtr("Belgrade"),
			Notes:       strPtr("Demo job, add some notes."),
			Tags:        []string{"React", "Redux"},
		},
		{
			CompanyName:       "Northwind",
			Position:          "Junior FE (Demo)",
			Stage:             StageRejected,
			Status:            StatusRejected,
			RejectedFromStage: &applied,
			AppliedDate:       now,
			Location:          strPtr("Hybrid"),
			Notes:             strPtr("Demo job, try restoring it."),
			Tags:              []string{"CSS", "UI"},
		},
	}
	return prepareSeed(ownerID, now, items)
}

func prepareSeed(ownerID string, now time.Time, items []Job) []Job {
	out := make([]Job, 0, len(items))
	for i, item := range items {
		item.OwnerID = ownerID
		// created_at drives board order; keep the listed order newest first.
		created := now.Add(-time.Duration(i) * time.Second)
		item.CreatedAt = created
		item.UpdatedAt = created
		if item.Status == StatusAccepted && item.AcceptedAt == nil {
			accepted := now
			item.AcceptedAt = &accepted
		}
		out = append(out, Reconcile(item))
	}
	return out
}
