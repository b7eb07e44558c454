package task

import "time"

// AssessedMetric is one metric outcome inside a workflow assessment.
// Deviation is reported by the simulation pipeline as
// simulated value minus target value.
type AssessedMetric struct {
	MetricID       string  `json:"metric_id"`
	MetricName     string  `json:"metric_name,omitempty"`
	SimulatedValue float64 `json:"simulated_value"`
	Deviation      float64 `json:"deviation"`
	Unit           string  `json:"unit,omitempty"`
}

// WorkflowAssessment is an append-only record of a single workflow or
// simulation execution's metric outcomes for a task. It is never mutated
// after creation; its only side effect is the progress overwrite applied
// to matching metric assignments at ingestion time.
type WorkflowAssessment struct {
	ID              string           `json:"id"`
	TaskID          string           `json:"task_id"`
	WorkflowID      string           `json:"workflow_id"`
	WorkflowName    string           `json:"workflow_name,omitempty"`
	ExecutedBy      string           `json:"executed_by,omitempty"`
	ExecutedAt      time.Time        `json:"executed_at"`
	AssessedMetrics []AssessedMetric `json:"assessed_metrics"`
	Summary         string           `json:"summary,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// AchievementRate returns the capped completion percentage for a metric:
// min(current/target*100, 100). A non-positive target yields 0 rather
// than a division blowup.
func AchievementRate(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	rate := current / target * 100
	if rate > 100 {
		return 100
	}
	return rate
}

// TrendFromDeviation derives a trend from the sign of a reported
// deviation (simulated minus target). A shortfall is declining even when
// it is small; "stable" is only reachable through manual progress updates.
func TrendFromDeviation(deviation float64) Trend {
	if deviation >= 0 {
		return TrendImproving
	}
	return TrendDeclining
}

// ApplyAssessment overwrites the progress of every assignment on t whose
// metric appears in the assessment. The overwrite is wholesale, not a
// merge. Assessed metrics with no matching assignment are skipped.
// Returns the assignments that were updated.
func (t *Task) ApplyAssessment(a *WorkflowAssessment, now time.Time) []*MetricAssignment {
	var updated []*MetricAssignment
	for i := range a.AssessedMetrics {
		am := &a.AssessedMetrics[i]
		ma := t.AssignmentForMetric(am.MetricID)
		if ma == nil {
			continue
		}
		ma.Progress = Progress{
			CurrentValue:    am.SimulatedValue,
			AchievementRate: AchievementRate(am.SimulatedValue, ma.Assessment.TargetValue),
			Trend:           TrendFromDeviation(am.Deviation),
			LastUpdated:     now,
			UpdatedBy:       a.ExecutedBy,
		}
		updated = append(updated, ma)
	}
	return updated
}
