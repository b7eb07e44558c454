// Package task defines the Task domain entity and the value objects it
// owns: metric assignments, model submissions, workflow assessments, and
// the derived statistics rollup.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/tracedeck/tracedeck/internal/domain"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists all task statuses in display order. Statistics buckets
// iterate this so every bucket is always present, even at zero.
var Statuses = []Status{
	StatusPending, StatusInProgress, StatusReview,
	StatusCompleted, StatusBlocked, StatusCancelled,
}

// Priority represents task urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists all task priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Type classifies the engineering activity a task covers.
type Type string

const (
	TypeModeling      Type = "modeling"
	TypeSimulation    Type = "simulation"
	TypeVerification  Type = "verification"
	TypeIntegration   Type = "integration"
	TypeDocumentation Type = "documentation"
)

// Collaborator is a denormalized roster reference attached to a task.
type Collaborator struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Deliverable is an artifact expected from a task.
type Deliverable struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// Task is a unit of work scoped to one project phase (milestone).
// Assignee and collaborator display names are copied from the project
// roster at creation time and can drift from later roster updates.
type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	PhaseID   string `json:"phase_id"`
	PhaseName string `json:"phase_name"`
	Code      string `json:"code"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        Type     `json:"type"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	AssigneeID    string         `json:"assignee_id"`
	AssigneeName  string         `json:"assignee_name"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`

	StartDate       *time.Time `json:"start_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`
	EstimatedHours  float64    `json:"estimated_hours"`
	ActualHours     float64    `json:"actual_hours"`

	// Progress is the task-level completion percentage (0-100),
	// maintained by explicit updates, not derived from assignments.
	Progress float64 `json:"progress"`

	MetricAssignments []MetricAssignment `json:"metric_assignments"`
	ModelSubmissions  []ModelSubmission  `json:"model_submissions"`
	Deliverables      []Deliverable      `json:"deliverables,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assignment returns the metric assignment with the given ID, or nil.
func (t *Task) Assignment(id string) *MetricAssignment {
	for i := range t.MetricAssignments {
		if t.MetricAssignments[i].ID == id {
			return &t.MetricAssignments[i]
		}
	}
	return nil
}

// AssignmentForMetric returns the assignment bound to metricID, or nil.
// The one-assignment-per-metric invariant makes the first match the only one.
func (t *Task) AssignmentForMetric(metricID string) *MetricAssignment {
	for i := range t.MetricAssignments {
		if t.MetricAssignments[i].MetricID == metricID {
			return &t.MetricAssignments[i]
		}
	}
	return nil
}

// Submission returns the model submission with the given ID, or nil.
func (t *Task) Submission(id string) *ModelSubmission {
	for i := range t.ModelSubmissions {
		if t.ModelSubmissions[i].ID == id {
			return &t.ModelSubmissions[i]
		}
	}
	return nil
}

// CodeFor formats a task code from a per-project sequence number.
func CodeFor(seq int) string {
	return fmt.Sprintf("TASK-%03d", seq)
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	ProjectID       string        `json:"project_id"`
	PhaseID         string        `json:"phase_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Type            Type          `json:"type"`
	Priority        Priority      `json:"priority"`
	AssigneeID      string        `json:"assignee_id"`
	CollaboratorIDs []string      `json:"collaborator_ids,omitempty"`
	StartDate       *time.Time    `json:"start_date,omitempty"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	EstimatedHours  float64       `json:"estimated_hours"`
	Deliverables    []Deliverable `json:"deliverables,omitempty"`
}

// Validate checks a CreateRequest. All failures wrap domain.ErrValidation.
func (r *CreateRequest) Validate() error {
	if r.ProjectID == "" {
		return fmt.Errorf("project_id is required: %w", domain.ErrValidation)
	}
	if r.PhaseID == "" {
		return fmt.Errorf("phase_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if r.Priority != "" && !ValidPriority(r.Priority) {
		return fmt.Errorf("invalid priority %q: %w", r.Priority, domain.ErrValidation)
	}
	if r.Type != "" && !ValidType(r.Type) {
		return fmt.Errorf("invalid type %q: %w", r.Type, domain.ErrValidation)
	}
	if r.EstimatedHours < 0 {
		return fmt.Errorf("estimated_hours must not be negative: %w", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest is a partial task update. Nil fields retain the previous
// value; set fields replace it whole. This mirrors the shallow-merge
// contract of the dashboard's edit forms.
type UpdateRequest struct {
	Title           *string        `json:"title,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Type            *Type          `json:"type,omitempty"`
	Priority        *Priority      `json:"priority,omitempty"`
	Status          *Status        `json:"status,omitempty"`
	AssigneeID      *string        `json:"assignee_id,omitempty"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	ActualStartDate *time.Time     `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time     `json:"actual_end_date,omitempty"`
	EstimatedHours  *float64       `json:"estimated_hours,omitempty"`
	ActualHours     *float64       `json:"actual_hours,omitempty"`
	Progress        *float64       `json:"progress,omitempty"`
	Deliverables    *[]Deliverable `json:"deliverables,omitempty"`
}

// Validate checks the set fields of an UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Status != nil && !ValidStatus(*r.Status) {
		return fmt.Errorf("invalid status %q: %w", *r.Status, domain.ErrValidation)
	}
	if r.Priority != nil && !ValidPriority(*r.Priority) {
		return fmt.Errorf("invalid priority %q: %w", *r.Priority, domain.ErrValidation)
	}
	if r.Type != nil && !ValidType(*r.Type) {
		return fmt.Errorf("invalid type %q: %w", *r.Type, domain.ErrValidation)
	}
	if r.Progress != nil && (*r.Progress < 0 || *r.Progress > 100) {
		return fmt.Errorf("progress must be within 0-100: %w", domain.ErrValidation)
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("title cannot be empty: %w", domain.ErrValidation)
	}
	return nil
}

// Apply merges the set fields of r into t.
func (r *UpdateRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Type != nil {
		t.Type = *r.Type
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.AssigneeID != nil {
		t.AssigneeID = *r.AssigneeID
	}
	if r.StartDate != nil {
		t.StartDate = r.StartDate
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
	if r.ActualStartDate != nil {
		t.ActualStartDate = r.ActualStartDate
	}
	if r.ActualEndDate != nil {
		t.ActualEndDate = r.ActualEndDate
	}
	if r.EstimatedHours != nil {
		t.EstimatedHours = *r.EstimatedHours
	}
	if r.ActualHours != nil {
		t.ActualHours = *r.ActualHours
	}
	if r.Progress != nil {
		t.Progress = *r.Progress
	}
	if r.Deliverables != nil {
		t.Deliverables = *r.Deliverables
	}
}

// Query filters a task listing. Zero values mean "no filter".
type Query struct {
	ProjectID string
	PhaseID   string
	// UserID matches the assignee or any collaborator.
	UserID   string
	Status   Status
	Priority Priority
	// Search matches title or description, case-insensitive.
	Search string
}

// Matches reports whether t satisfies every set filter in q.
func (q Query) Matches(t *Task) bool {
	if q.ProjectID != "" && t.ProjectID != q.ProjectID {
		return false
	}
	if q.PhaseID != "" && t.PhaseID != q.PhaseID {
		return false
	}
	if q.UserID != "" && !t.involves(q.UserID) {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func (t *Task) involves(userID string) bool {
	if t.AssigneeID == userID {
		return true
	}
	for i := range t.Collaborators {
		if t.Collaborators[i].UserID == userID {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p Priority) bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// ValidType reports whether ty is a known task type.
func ValidType(ty Type) bool {
	switch ty {
	case TypeModeling, TypeSimulation, TypeVerification, TypeIntegration, TypeDocumentation:
		return true
	}
	return false
}
