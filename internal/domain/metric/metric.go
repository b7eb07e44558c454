// Package metric defines the model quality metric catalog entity.
package metric

import (
	"fmt"
	"strings"
	"time"

	"github.com/tracedeck/tracedeck/internal/domain"
)

// VerificationMethod describes how a metric value is verified.
type VerificationMethod string

const (
	VerifySimulation    VerificationMethod = "simulation"
	VerifyTest          VerificationMethod = "test"
	VerifyAnalysis      VerificationMethod = "analysis"
	VerifyInspection    VerificationMethod = "inspection"
	VerifyDemonstration VerificationMethod = "demonstration"
)

// Metric is a catalog entry describing one model quality metric.
// Target and current values are the catalog-level figures; tasks snapshot
// them into their own assignments at attach time.
type Metric struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Code               string             `json:"code"`
	Unit               string             `json:"unit,omitempty"`
	TargetValue        float64            `json:"target_value"`
	CurrentValue       float64            `json:"current_value"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// CreateRequest holds the fields needed to register a new catalog metric.
type CreateRequest struct {
	Name               string             `json:"name"`
	Code               string             `json:"code"`
	Unit               string             `json:"unit,omitempty"`
	TargetValue        float64            `json:"target_value"`
	CurrentValue       float64            `json:"current_value"`
	VerificationMethod VerificationMethod `json:"verification_method"`
}

// UpdateRequest is a partial metric update; nil fields retain the
// previous value. Catalog target changes do not ripple into the
// snapshots held by existing task assignments.
type UpdateRequest struct {
	Name               *string             `json:"name,omitempty"`
	Unit               *string             `json:"unit,omitempty"`
	TargetValue        *float64            `json:"target_value,omitempty"`
	CurrentValue       *float64            `json:"current_value,omitempty"`
	VerificationMethod *VerificationMethod `json:"verification_method,omitempty"`
}

// Validate checks a CreateRequest. All failures wrap domain.ErrValidation.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("code is required: %w", domain.ErrValidation)
	}
	if r.VerificationMethod != "" && !validMethod(r.VerificationMethod) {
		return fmt.Errorf("unknown verification_method %q: %w", r.VerificationMethod, domain.ErrValidation)
	}
	return nil
}

// Validate checks the fields an UpdateRequest carries.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("name cannot be blank: %w", domain.ErrValidation)
	}
	if r.VerificationMethod != nil && !validMethod(*r.VerificationMethod) {
		return fmt.Errorf("unknown verification_method %q: %w", *r.VerificationMethod, domain.ErrValidation)
	}
	return nil
}

func validMethod(m VerificationMethod) bool {
	switch m {
	case VerifySimulation, VerifyTest, VerifyAnalysis, VerifyInspection, VerifyDemonstration:
		return true
	}
	return false
}
