package task

import "time"

// SourceType records where an assignment's target figure came from.
type SourceType string

const (
	SourceInternalTarget SourceType = "internal_target"
	SourceCustomerReq    SourceType = "customer_requirement"
	SourceRegulation     SourceType = "regulation"
	SourceBenchmark      SourceType = "benchmark"
)

// ConfidenceLevel is the assessor's confidence in the target figures.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// OptimalityLevel is the assessor's judgment of how ambitious the target is.
type OptimalityLevel string

const (
	OptimalityConservative OptimalityLevel = "conservative"
	OptimalityAcceptable   OptimalityLevel = "acceptable"
	OptimalityOptimal      OptimalityLevel = "optimal"
	OptimalityStretch      OptimalityLevel = "stretch"
)

// Trend describes the direction a metric's value is moving.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Assessment is the qualitative judgment attached to a metric assignment.
// Target and baseline values are snapshots of the catalog figures at
// assignment time, not live references.
type Assessment struct {
	Source         SourceType      `json:"source"`
	Confidence     ConfidenceLevel `json:"confidence"`
	Optimality     OptimalityLevel `json:"optimality"`
	TargetValue    float64         `json:"target_value"`
	BaselineValue  float64         `json:"baseline_value"`
	ChallengeValue float64         `json:"challenge_value,omitempty"`
	Justification  string          `json:"justification,omitempty"`
	RiskNotes      string          `json:"risk_notes,omitempty"`
	AssessedBy     string          `json:"assessed_by,omitempty"`
	AssessedAt     time.Time       `json:"assessed_at"`
}

// Progress is the quantitative progress record of a metric assignment.
// AchievementRate is maintained by explicit updates or workflow
// ingestion; it is never recomputed when the assessment target changes.
type Progress struct {
	CurrentValue    float64   `json:"current_value"`
	AchievementRate float64   `json:"achievement_rate"`
	Trend           Trend     `json:"trend"`
	LastUpdated     time.Time `json:"last_updated"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
}

// MetricAssignment binds one catalog metric to one task. A metric may be
// attached to a task at most once.
type MetricAssignment struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	MetricID   string     `json:"metric_id"`
	MetricName string     `json:"metric_name"`
	MetricCode string     `json:"metric_code"`
	Assessment Assessment `json:"assessment"`
	Progress   Progress   `json:"progress"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AssessmentUpdate is a partial assessment update. Nil fields retain the
// previous value. Numeric targets are accepted as-is, including negative
// values; sanity is the assessor's call.
type AssessmentUpdate struct {
	Source         *SourceType      `json:"source,omitempty"`
	Confidence     *ConfidenceLevel `json:"confidence,omitempty"`
	Optimality     *OptimalityLevel `json:"optimality,omitempty"`
	TargetValue    *float64         `json:"target_value,omitempty"`
	BaselineValue  *float64         `json:"baseline_value,omitempty"`
	ChallengeValue *float64         `json:"challenge_value,omitempty"`
	Justification  *string          `json:"justification,omitempty"`
	RiskNotes      *string          `json:"risk_notes,omitempty"`
}

// Apply merges the set fields of u into a and restamps AssessedAt.
func (u *AssessmentUpdate) Apply(a *Assessment, by string, now time.Time) {
	if u.Source != nil {
		a.Source = *u.Source
	}
	if u.Confidence != nil {
		a.Confidence = *u.Confidence
	}
	if u.Optimality != nil {
		a.Optimality = *u.Optimality
	}
	if u.TargetValue != nil {
		a.TargetValue = *u.TargetValue
	}
	if u.BaselineValue != nil {
		a.BaselineValue = *u.BaselineValue
	}
	if u.ChallengeValue != nil {
		a.ChallengeValue = *u.ChallengeValue
	}
	if u.Justification != nil {
		a.Justification = *u.Justification
	}
	if u.RiskNotes != nil {
		a.RiskNotes = *u.RiskNotes
	}
	a.AssessedBy = by
	a.AssessedAt = now
}

// ProgressUpdate is a partial progress update. The achievement rate is
// caller-supplied; the store never recomputes it from current/target.
type ProgressUpdate struct {
	CurrentValue    *float64 `json:"current_value,omitempty"`
	AchievementRate *float64 `json:"achievement_rate,omitempty"`
	Trend           *Trend   `json:"trend,omitempty"`
}

// Apply merges the set fields of u into p and restamps LastUpdated/UpdatedBy.
func (u *ProgressUpdate) Apply(p *Progress, by string, now time.Time) {
	if u.CurrentValue != nil {
		p.CurrentValue = *u.CurrentValue
	}
	if u.AchievementRate != nil {
		p.AchievementRate = *u.AchievementRate
	}
	if u.Trend != nil {
		p.Trend = *u.Trend
	}
	p.LastUpdated = now
	p.UpdatedBy = by
}

// ValidTrend reports whether tr is a known trend value.
func ValidTrend(tr Trend) bool {
	switch tr {
	case TrendImproving, TrendStable, TrendDeclining:
		return true
	}
	return false
}
