package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tracedeck"

// Metrics holds all TraceDeck metric instruments. It satisfies the
// service layer's Instruments interface.
type Metrics struct {
	TasksCreated        metric.Int64Counter
	AssessmentsIngested metric.Int64Counter
	AssignmentsUpdated  metric.Int64Counter
	Decisions           metric.Int64Counter
	AchievementRate     metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksCreated, err = meter.Int64Counter("tracedeck.tasks.created",
		metric.WithDescription("Number of tasks created"))
	if err != nil {
		return nil, err
	}

	m.AssessmentsIngested, err = meter.Int64Counter("tracedeck.assessments.ingested",
		metric.WithDescription("Number of workflow assessments ingested"))
	if err != nil {
		return nil, err
	}

	m.AssignmentsUpdated, err = meter.Int64Counter("tracedeck.assignments.progress_updates",
		metric.WithDescription("Number of metric assignment progress rewrites"))
	if err != nil {
		return nil, err
	}

	m.Decisions, err = meter.Int64Counter("tracedeck.submissions.decisions",
		metric.WithDescription("Number of model validation decisions recorded"))
	if err != nil {
		return nil, err
	}

	m.AchievementRate, err = meter.Float64Histogram("tracedeck.assignments.achievement_rate",
		metric.WithDescription("Observed metric achievement rates (percent)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// TaskCreated records a task creation.
func (m *Metrics) TaskCreated(ctx context.Context) {
	m.TasksCreated.Add(ctx, 1)
}

// AssessmentIngested records a workflow assessment and the number of
// assignments it rewrote.
func (m *Metrics) AssessmentIngested(ctx context.Context, updatedAssignments int) {
	m.AssessmentsIngested.Add(ctx, 1)
	m.AssignmentsUpdated.Add(ctx, int64(updatedAssignments))
}

// DecisionRecorded records a validation decision by outcome.
func (m *Metrics) DecisionRecorded(ctx context.Context, status string) {
	m.Decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// AchievementObserved records one achievement rate sample.
func (m *Metrics) AchievementObserved(ctx context.Context, rate float64) {
	m.AchievementRate.Record(ctx, rate)
}
