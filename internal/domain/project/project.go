// Package project defines the Project domain entity and its milestones.
package project

import "time"

// Status represents the lifecycle state of a project.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Project represents an MBSE development project tracked by TraceDeck.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Milestones  []Milestone  `json:"milestones"`
	TeamMembers []TeamMember `json:"team_members"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Milestone is a project phase checkpoint that tasks are grouped under.
type Milestone struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SortOrder   int        `json:"sort_order"`
}

// TeamMember is a roster entry used to resolve display names for
// assignees and collaborators at task-creation time.
type TeamMember struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

// Milestone returns the milestone with the given ID, or nil.
func (p *Project) Milestone(id string) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}

// MemberName resolves a user ID to its roster display name.
// Returns the user ID unchanged when the user is not on the roster.
func (p *Project) MemberName(userID string) string {
	for i := range p.TeamMembers {
		if p.TeamMembers[i].UserID == userID {
			return p.TeamMembers[i].UserName
		}
	}
	return userID
}

// CreateRequest holds the fields needed to create a new project.
type CreateRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Milestones  []CreateMilestoneRequest `json:"milestones,omitempty"`
	TeamMembers []TeamMember             `json:"team_members,omitempty"`
}

// CreateMilestoneRequest holds the fields for one milestone at project creation.
type CreateMilestoneRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SortOrder   int        `json:"sort_order"`
}

// UpdateRequest is a partial project update; nil fields retain the
// previous value. Roster updates do not ripple into the names already
// denormalized onto existing tasks.
type UpdateRequest struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *Status       `json:"status,omitempty"`
	TeamMembers *[]TeamMember `json:"team_members,omitempty"`
}
