package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

func seedMetric(store *mockStore, id string) *metric.Metric {
	m := &metric.Metric{
		ID:                 id,
		Name:               "Pack temperature rise",
		Code:               "THM-001",
		Unit:               "degC",
		TargetValue:        180,
		CurrentValue:       165,
		VerificationMethod: metric.VerifySimulation,
		Version:            1,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	store.metrics[id] = m
	return m
}

func TestAddMetricSnapshotsCatalog(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	seedMetric(store, "m1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	a, err := svc.AddMetric(context.Background(), "t1", "m1", "u-lead")
	if err != nil {
		t.Fatalf("AddMetric: %v", err)
	}
	if a.MetricCode != "THM-001" || a.MetricName != "Pack temperature rise" {
		t.Errorf("catalog identity not copied: %+v", a)
	}
	if a.Assessment.TargetValue != 180 || a.Assessment.BaselineValue != 165 {
		t.Errorf("snapshot = target %v baseline %v, want 180/165",
			a.Assessment.TargetValue, a.Assessment.BaselineValue)
	}
	if a.Assessment.Source != task.SourceInternalTarget {
		t.Errorf("source = %q, want internal_target placeholder", a.Assessment.Source)
	}
	if a.Progress.Trend != task.TrendStable || a.Progress.CurrentValue != 0 {
		t.Errorf("progress not zeroed: %+v", a.Progress)
	}

	// A later catalog edit must not touch the snapshot.
	store.metrics["m1"].TargetValue = 200
	got, err := store.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.MetricAssignments[0].Assessment.TargetValue != 180 {
		t.Errorf("snapshot drifted to %v after catalog edit",
			got.MetricAssignments[0].Assessment.TargetValue)
	}
}

func TestAddMetricDuplicate(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	seedMetric(store, "m1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	if _, err := svc.AddMetric(context.Background(), "t1", "m1", "u-lead"); err != nil {
		t.Fatalf("first AddMetric: %v", err)
	}
	_, err := svc.AddMetric(context.Background(), "t1", "m1", "u-lead")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestAddMetricUnknownMetric(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	_, err := svc.AddMetric(context.Background(), "t1", "missing", "u-lead")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAssessmentPartial(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	seedMetric(store, "m1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	a, err := svc.AddMetric(context.Background(), "t1", "m1", "u-lead")
	if err != nil {
		t.Fatalf("AddMetric: %v", err)
	}

	source := task.SourceRegulation
	challenge := 170.0
	got, err := svc.UpdateAssessment(context.Background(), "t1", a.ID, task.AssessmentUpdate{
		Source:         &source,
		ChallengeValue: &challenge,
	}, "u-eng")
	if err != nil {
		t.Fatalf("UpdateAssessment: %v", err)
	}
	if got.Assessment.Source != task.SourceRegulation || got.Assessment.ChallengeValue != 170 {
		t.Errorf("update not applied: %+v", got.Assessment)
	}
	if got.Assessment.TargetValue != 180 {
		t.Errorf("unset target changed to %v", got.Assessment.TargetValue)
	}
	if got.Assessment.AssessedBy != "u-eng" {
		t.Errorf("assessed_by = %q, want u-eng", got.Assessment.AssessedBy)
	}
}

func TestUpdateProgressKeepsSuppliedRate(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	seedMetric(store, "m1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	a, err := svc.AddMetric(context.Background(), "t1", "m1", "u-lead")
	if err != nil {
		t.Fatalf("AddMetric: %v", err)
	}

	current := 170.0
	rate := 42.0
	trend := task.TrendImproving
	got, err := svc.UpdateProgress(context.Background(), "t1", a.ID, task.ProgressUpdate{
		CurrentValue:    &current,
		AchievementRate: &rate,
		Trend:           &trend,
	}, "u-eng")
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	// Caller-supplied rate is stored as-is, not recomputed from 170/180.
	if got.Progress.AchievementRate != 42 {
		t.Errorf("rate = %v, want supplied 42", got.Progress.AchievementRate)
	}
	if got.Progress.UpdatedBy != "u-eng" {
		t.Errorf("updated_by = %q, want u-eng", got.Progress.UpdatedBy)
	}
}

func TestUpdateProgressInvalidTrend(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	trend := task.Trend("sideways")
	_, err := svc.UpdateProgress(context.Background(), "t1", "a1", task.ProgressUpdate{Trend: &trend}, "u-eng")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateAssessmentUnknownAssignment(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	svc := NewAssignmentService(store, NewTaskService(store, nil, nil, nil, nil), nil)

	_, err := svc.UpdateAssessment(context.Background(), "t1", "missing", task.AssessmentUpdate{}, "u-eng")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
