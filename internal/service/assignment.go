package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/port/database"
	"github.com/tracedeck/tracedeck/internal/port/messagequeue"
)

// AssignmentService attaches catalog metrics to tasks and manages the
// assessment and progress records of each attachment.
type AssignmentService struct {
	store database.Store
	tasks *TaskService
	inst  Instruments
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(store database.Store, tasks *TaskService, inst Instruments) *AssignmentService {
	return &AssignmentService{store: store, tasks: tasks, inst: inst}
}

// AddMetric attaches a catalog metric to a task. The attachment snapshots
// the catalog's current target and value; later catalog edits do not
// propagate. A metric already attached to the task is a conflict.
func (s *AssignmentService) AddMetric(ctx context.Context, taskID, metricID, assessedBy string) (*task.MetricAssignment, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.AssignmentForMetric(metricID) != nil {
		return nil, fmt.Errorf("metric %s already assigned to task %s: %w", metricID, taskID, domain.ErrConflict)
	}

	m, err := s.store.GetMetric(ctx, metricID)
	if err != nil {
		return nil, fmt.Errorf("resolve metric %s: %w", metricID, err)
	}

	now := time.Now().UTC()
	a := &task.MetricAssignment{
		ID:         uuid.NewString(),
		TaskID:     t.ID,
		MetricID:   m.ID,
		MetricName: m.Name,
		MetricCode: m.Code,
		Assessment: task.Assessment{
			Source:        task.SourceInternalTarget,
			Confidence:    task.ConfidenceMedium,
			Optimality:    task.OptimalityAcceptable,
			TargetValue:   m.TargetValue,
			BaselineValue: m.CurrentValue,
			AssessedBy:    assessedBy,
			AssessedAt:    now,
		},
		Progress: task.Progress{
			Trend:       task.TrendStable,
			LastUpdated: now,
			UpdatedBy:   assessedBy,
		},
		CreatedAt: now,
	}

	if err := s.store.CreateMetricAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("create metric assignment: %w", err)
	}

	slog.Info("metric assigned", "task_id", t.ID, "metric_code", m.Code, "assignment_id", a.ID)
	s.tasks.publish(ctx, messagequeue.SubjectMetricAssigned, a)
	s.tasks.broadcast(ctx, "task.metric_assigned", a)
	s.tasks.invalidate(ctx, t.ProjectID, t.PhaseID)
	return a, nil
}

// UpdateAssessment merges a partial assessment update into one
// assignment and restamps the assessor.
func (s *AssignmentService) UpdateAssessment(ctx context.Context, taskID, assignmentID string, upd task.AssessmentUpdate, by string) (*task.MetricAssignment, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	a := t.Assignment(assignmentID)
	if a == nil {
		return nil, fmt.Errorf("assignment %s not found on task %s: %w", assignmentID, taskID, domain.ErrNotFound)
	}

	upd.Apply(&a.Assessment, by, time.Now().UTC())

	if err := s.store.UpdateMetricAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.tasks.broadcast(ctx, "task.assessment_updated", a)
	return a, nil
}

// UpdateProgress merges a partial progress update into one assignment.
// The achievement rate is taken as supplied, never recomputed here; the
// workflow ingestion path is the only place that derives it.
func (s *AssignmentService) UpdateProgress(ctx context.Context, taskID, assignmentID string, upd task.ProgressUpdate, by string) (*task.MetricAssignment, error) {
	if upd.Trend != nil && !task.ValidTrend(*upd.Trend) {
		return nil, fmt.Errorf("invalid trend %q: %w", *upd.Trend, domain.ErrValidation)
	}

	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	a := t.Assignment(assignmentID)
	if a == nil {
		return nil, fmt.Errorf("assignment %s not found on task %s: %w", assignmentID, taskID, domain.ErrNotFound)
	}

	upd.Apply(&a.Progress, by, time.Now().UTC())

	if err := s.store.UpdateMetricAssignment(ctx, a); err != nil {
		return nil, err
	}
	if s.inst != nil {
		s.inst.AchievementObserved(ctx, a.Progress.AchievementRate)
	}
	s.tasks.broadcast(ctx, "task.progress_updated", a)
	return a, nil
}
