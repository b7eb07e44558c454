package project

import (
	"fmt"
	"strings"

	"github.com/tracedeck/tracedeck/internal/domain"
)

const (
	maxNameLen        = 255
	maxDescriptionLen = 2000
)

// ValidateCreate checks a CreateRequest before it reaches the store.
// All failures wrap domain.ErrValidation.
func ValidateCreate(req *CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(req.Name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters: %w", maxNameLen, domain.ErrValidation)
	}
	for _, r := range req.Name {
		if r < 0x20 {
			return fmt.Errorf("name contains control characters: %w", domain.ErrValidation)
		}
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	for i := range req.Milestones {
		if strings.TrimSpace(req.Milestones[i].Name) == "" {
			return fmt.Errorf("milestone %d: name is required: %w", i, domain.ErrValidation)
		}
	}
	for i := range req.TeamMembers {
		if req.TeamMembers[i].UserID == "" {
			return fmt.Errorf("team member %d: user_id is required: %w", i, domain.ErrValidation)
		}
	}
	return nil
}

// ValidateUpdate checks the fields an UpdateRequest carries. Unset
// fields are skipped.
func ValidateUpdate(req *UpdateRequest) error {
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fmt.Errorf("name cannot be blank: %w", domain.ErrValidation)
		}
		if len(*req.Name) > maxNameLen {
			return fmt.Errorf("name exceeds %d characters: %w", maxNameLen, domain.ErrValidation)
		}
	}
	if req.Description != nil && len(*req.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrValidation)
	}
	if req.Status != nil && !ValidStatus(*req.Status) {
		return fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrValidation)
	}
	if req.TeamMembers != nil {
		for i := range *req.TeamMembers {
			if (*req.TeamMembers)[i].UserID == "" {
				return fmt.Errorf("team member %d: user_id is required: %w", i, domain.ErrValidation)
			}
		}
	}
	return nil
}

// ValidStatus reports whether s is one of the known project statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return true
	}
	return false
}
