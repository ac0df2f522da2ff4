// Package jobs holds the job-application model: pipeline stages, statuses,
// the transition rules between them, and normalization of loosely typed input.
package jobs

// Stage is a position in the hiring pipeline.
type Stage string

const (
	StageApplied     Stage = "applied"
	StageHRInterview Stage = "hr-interview"
	StageTechnical   Stage = "technical"
	StageFinal       Stage = "final"
	StageOffer       Stage = "offer"
	StageRejected    Stage = "rejected"
)

// InitialStage is where every new application starts and where a restore
// lands when the pre-rejection stage is unknown.
const InitialStage = StageApplied

// Status is the coarse lifecycle classification shown next to the stage.
type Status string

const (
	StatusActive   Status = "active"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// StageInfo describes a board column.
type StageInfo struct {
	ID    Stage  `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

var stageInfos = []StageInfo{
	{ID: StageApplied, Title: "Applied", Color: "#4f46e5"},
	{ID: StageHRInterview, Title: "HR Interview", Color: "#7c3aed"},
	{ID: StageTechnical, Title: "Technical Interview", Color: "#059669"},
	{ID: StageFinal, Title: "Final Interview", Color: "#d97706"},
	{ID: StageOffer, Title: "Offer", Color: "#3b82f6"},
	{ID: StageRejected, Title: "Rejected", Color: "#ef4444"},
}

var statuses = []Status{StatusActive, StatusAccepted, StatusRejected}

// Stages returns the board columns in pipeline order.
func Stages() []StageInfo {
	out := make([]StageInfo, len(stageInfos))
	copy(out, stageInfos)
	return out
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	for _, info := range stageInfos {
		if info.ID == s {
			return true
		}
	}
	return false
}

// Title returns the column heading for s, or the raw value for unknown stages.
func (s Stage) Title() string {
	for _, info := range stageInfos {
		if info.ID == s {
			return info.Title
		}
	}
	return string(s)
}

// Index returns the pipeline position of s, or -1.
func (s Stage) Index() int {
	for i, info := range stageInfos {
		if info.ID == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}

func IsValidStage(value string) bool {
	return Stage(value).Valid()
}

func IsValidStatus(value string) bool {
	return Status(value).Valid()
}
