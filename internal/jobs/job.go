package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Job is a single tracked application owned by one user.
type Job struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"userId"`
	CompanyName       string     `json:"companyName"`
	Position          string     `json:"position"`
	Stage             Stage      `json:"stage"`
	Status            Status     `json:"status"`
	RejectedFromStage *Stage     `json:"rejectedFromStage"`
	AppliedDate       time.Time  `json:"appliedDate"`
	AcceptedAt        *time.Time `json:"acceptedAt,omitempty"`
	Location          *string    `json:"location"`
	Salary            *string    `json:"salary"`
	Tags              []string   `json:"tags"`
	Notes             *string    `json:"notes"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (j Job) State() State {
	return State{Stage: j.Stage, Status: j.Status, RejectedFrom: j.RejectedFromStage}
}

// WithState returns a copy of j carrying next.
func (j Job) WithState(next State) Job {
	j.Stage = next.Stage
	j.Status = next.Status
	j.RejectedFromStage = next.RejectedFrom
	return j
}

// Reconcile repairs a job read back from storage so that it satisfies the
// model: stage and status are known values, a rejected stage always carries
// a rejected status, and rejection memory exists only while rejected.
func Reconcile(j Job) Job {
	j.Stage = NormalizeStage(j.Stage)
	j.Status = NormalizeStatus(j.Status)
	if j.RejectedFromStage != nil {
		from := NormalizeStage(*j.RejectedFromStage)
		if from == StageRejected {
			j.RejectedFromStage = nil
		} else {
			j.RejectedFromStage = &from
		}
	}

	if j.Stage == StageRejected || j.Status == StatusRejected {
		if j.Stage != StageRejected && j.RejectedFromStage == nil {
			from := j.Stage
			j.RejectedFromStage = &from
		}
		j.Stage = StageRejected
		j.Status = StatusRejected
	} else {
		j.RejectedFromStage = nil
	}

	if j.Tags == nil {
		j.Tags = []string{}
	} else {
		j.Tags = NormalizeTags(j.Tags)
	}
	return j
}

// NewJob is the input for adding an application. Stage and status are not
// accepted; every new application starts active in the initial stage.
type NewJob struct {
	CompanyName string `json:"companyName"`
	Position    string `json:"position"`
	Location    any    `json:"location"`
	Salary      any    `json:"salary"`
	Tags        any    `json:"tags"`
	Notes       any    `json:"notes"`
}

// Patch carries the fields an edit supplies. Nil pointers and nil values mean
// "leave unchanged"; stage and status cannot be edited this way.
type Patch struct {
	CompanyName *string `json:"companyName"`
	Position    *string `json:"position"`
	Location    any     `json:"location"`
	Salary      any     `json:"salary"`
	Tags        any     `json:"tags"`
	Notes       any     `json:"notes"`

	// set* record which loose fields were present in the input, so an
	// explicit null can clear a value.
	setLocation bool
	setSalary   bool
	setTags     bool
	setNotes    bool
}

// ValidationError lists per-field problems found before dispatch.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, key := range []string{"companyName", "position"} {
		if msg, ok := e.Fields[key]; ok {
			parts = append(parts, msg)
		}
	}
	for key, msg := range e.Fields {
		if key != "companyName" && key != "position" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func (n NewJob) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(n.CompanyName) == "" {
		fields["companyName"] = "company is required"
	}
	if strings.TrimSpace(n.Position) == "" {
		fields["position"] = "position is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Build turns the input into a job ready to insert.
func (n NewJob) Build(ownerID string, now time.Time) Job {
	return Job{
		OwnerID:     ownerID,
		CompanyName: strings.TrimSpace(n.CompanyName),
		Position:    strings.TrimSpace(n.Position),
		Stage:       InitialStage,
		Status:      StatusActive,
		AppliedDate: now,
		Location:    PickStringOrNull(n.Location),
		Salary:      PickStringOrNull(n.Salary),
		Tags:        NormalizeTags(n.Tags),
		Notes:       PickStringOrNull(n.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p Patch) Validate() error {
	fields := map[string]string{}
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		fields["companyName"] = "company is required"
	}
	if p.Position != nil && strings.TrimSpace(*p.Position) == "" {
		fields["position"] = "position is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// UnmarshalJSON records which keys were present so that an explicit null
// clears an optional field while an absent key leaves it alone.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Patch{}
	for key, value := range raw {
		switch key {
		case "companyName":
			var v *string
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if v != nil {
				p.CompanyName = v
			}
		case "position":
			var v *string
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if v != nil {
				p.Position = v
			}
		case "location", "salary", "tags", "notes":
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			switch key {
			case "location":
				p.SetLocation(v)
			case "salary":
				p.SetSalary(v)
			case "tags":
				p.SetTags(v)
			case "notes":
				p.SetNotes(v)
			}
		}
	}
	return nil
}

// SetLocation marks location as supplied, including an explicit clear.
func (p *Patch) SetLocation(v any) { p.Location, p.setLocation = v, true }
func (p *Patch) SetSalary(v any)   { p.Salary, p.setSalary = v, true }
func (p *Patch) SetTags(v any)     { p.Tags, p.setTags = v, true }
func (p *Patch) SetNotes(v any)    { p.Notes, p.setNotes = v, true }

// Changes is the normalized column set a patch writes.
type Changes struct {
	CompanyName *string
	Position    *string
	Location    *string
	Salary      *string
	Tags        []string
	Notes       *string

	HasLocation bool
	HasSalary   bool
	HasTags     bool
	HasNotes    bool
}

// Empty reports whether nothing would be written.
func (c Changes) Empty() bool {
	return c.CompanyName == nil && c.Position == nil && !c.HasLocation && !c.HasSalary && !c.HasTags && !c.HasNotes
}

// Changes normalizes the supplied fields.
func (p Patch) Changes() Changes {
	var c Changes
	if p.CompanyName != nil {
		v := strings.TrimSpace(*p.CompanyName)
		c.CompanyName = &v
	}
	if p.Position != nil {
		v := strings.TrimSpace(*p.Position)
		c.Position = &v
	}
	if p.setLocation || p.Location != nil {
		c.HasLocation = true
		c.Location = PickStringOrNull(p.Location)
	}
	if p.setSalary || p.Salary != nil {
		c.HasSalary = true
		c.Salary = PickStringOrNull(p.Salary)
	}
	if p.setTags || p.Tags != nil {
		c.HasTags = true
		c.Tags = NormalizeTags(p.Tags)
	}
	if p.setNotes || p.Notes != nil {
		c.HasNotes = true
		c.Notes = PickStringOrNull(p.Notes)
	}
	return c
}

// Apply returns j with the changes applied, leaving stage and status alone.
func (c Changes) Apply(j Job) Job {
	if c.CompanyName != nil {
		j.CompanyName = *c.CompanyName
	}
	if c.Position != nil {
		j.Position = *c.Position
	}
	if c.HasLocation {
		j.Location = c.Location
	}
	if c.HasSalary {
		j.Salary = c.Salary
	}
	if c.HasTags {
		j.Tags = c.Tags
	}
	if c.HasNotes {
		j.Notes = c.Notes
	}
	return j
}
