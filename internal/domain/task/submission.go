package task

import "time"

// ValidationStatus is the state of a model submission's review.
// pending -> validated | rejected; terminal once left pending under the
// first_decision_wins policy.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationRejected  ValidationStatus = "rejected"
)

// MatchType classifies how a model parameter maps onto a metric.
type MatchType string

const (
	MatchDirect     MatchType = "direct"
	MatchDerived    MatchType = "derived"
	MatchCorrelated MatchType = "correlated"
)

// MetricMatch is a claimed mapping from a model parameter path to a
// catalog metric.
type MetricMatch struct {
	ParameterPath string          `json:"parameter_path"`
	MetricID      string          `json:"metric_id"`
	MetricName    string          `json:"metric_name,omitempty"`
	MatchType     MatchType       `json:"match_type"`
	Confidence    ConfidenceLevel `json:"confidence"`
}

// ModelSubmission is a versioned model artifact submitted against a task.
// Repeated submissions of the same model version are accepted and
// accumulate; deduplication is a reviewer concern, not a store concern.
type ModelSubmission struct {
	ID            string        `json:"id"`
	TaskID        string        `json:"task_id"`
	ModelID       string        `json:"model_id"`
	ModelName     string        `json:"model_name"`
	ModelVersion  string        `json:"model_version"`
	Description   string        `json:"description,omitempty"`
	MetricMatches []MetricMatch `json:"metric_matches,omitempty"`

	ValidationStatus   ValidationStatus `json:"validation_status"`
	ValidationComments string           `json:"validation_comments,omitempty"`
	ValidatedBy        string           `json:"validated_by,omitempty"`
	ValidatedAt        *time.Time       `json:"validated_at,omitempty"`

	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitRequest holds the fields for a new model submission.
type SubmitRequest struct {
	ModelID       string        `json:"model_id"`
	ModelName     string        `json:"model_name"`
	ModelVersion  string        `json:"model_version"`
	Description   string        `json:"description,omitempty"`
	MetricMatches []MetricMatch `json:"metric_matches,omitempty"`
}

// Decided reports whether the submission has left the pending state.
func (s *ModelSubmission) Decided() bool {
	return s.ValidationStatus != ValidationPending
}
