package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/port/database"
	"github.com/tracedeck/tracedeck/internal/port/messagequeue"
)

// AssessmentService ingests workflow (simulation) results against tasks.
// Each ingestion appends an immutable assessment record and overwrites
// the progress of the metric assignments the result covers.
type AssessmentService struct {
	store database.Store
	tasks *TaskService
	inst  Instruments
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(store database.Store, tasks *TaskService, inst Instruments) *AssessmentService {
	return &AssessmentService{store: store, tasks: tasks, inst: inst}
}

// IngestRequest is a workflow result as delivered by a simulation runner,
// over HTTP or the message queue.
type IngestRequest struct {
	TaskID          string                `json:"task_id"`
	WorkflowID      string                `json:"workflow_id"`
	WorkflowName    string                `json:"workflow_name,omitempty"`
	ExecutedBy      string                `json:"executed_by,omitempty"`
	ExecutedAt      time.Time             `json:"executed_at"`
	AssessedMetrics []task.AssessedMetric `json:"assessed_metrics"`
	Summary         string                `json:"summary,omitempty"`
}

// Validate checks an IngestRequest. All failures wrap domain.ErrValidation.
func (r *IngestRequest) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.WorkflowID) == "" {
		return fmt.Errorf("workflow_id is required: %w", domain.ErrValidation)
	}
	if len(r.AssessedMetrics) == 0 {
		return fmt.Errorf("assessed_metrics must not be empty: %w", domain.ErrValidation)
	}
	for i := range r.AssessedMetrics {
		if r.AssessedMetrics[i].MetricID == "" {
			return fmt.Errorf("assessed metric %d: metric_id is required: %w", i, domain.ErrValidation)
		}
	}
	return nil
}

// Ingest appends a workflow assessment to a task and rewrites the
// progress of every assignment whose metric the result covers. Assessed
// metrics with no matching assignment are recorded but have no effect.
func (s *AssessmentService) Ingest(ctx context.Context, req *IngestRequest) (*task.WorkflowAssessment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &task.WorkflowAssessment{
		ID:              uuid.NewString(),
		TaskID:          t.ID,
		WorkflowID:      req.WorkflowID,
		WorkflowName:    req.WorkflowName,
		ExecutedBy:      req.ExecutedBy,
		ExecutedAt:      req.ExecutedAt,
		AssessedMetrics: req.AssessedMetrics,
		Summary:         req.Summary,
		CreatedAt:       now,
	}
	if a.ExecutedAt.IsZero() {
		a.ExecutedAt = now
	}

	updated := t.ApplyAssessment(a, now)
	if err := s.store.ApplyWorkflowAssessment(ctx, a, updated); err != nil {
		return nil, fmt.Errorf("apply workflow assessment: %w", err)
	}
	if s.inst != nil {
		for _, ma := range updated {
			s.inst.AchievementObserved(ctx, ma.Progress.AchievementRate)
		}
	}

	slog.Info("workflow assessment ingested",
		"task_id", t.ID, "workflow_id", a.WorkflowID,
		"metrics", len(a.AssessedMetrics), "assignments_updated", len(updated))
	if s.inst != nil {
		s.inst.AssessmentIngested(ctx, len(updated))
	}
	s.tasks.publish(ctx, messagequeue.SubjectWorkflowAssessed, a)
	s.tasks.broadcast(ctx, "task.workflow_assessed", a)
	s.tasks.invalidate(ctx, t.ProjectID, t.PhaseID)
	return a, nil
}

// History returns a task's workflow assessments, newest first.
func (s *AssessmentService) History(ctx context.Context, taskID string) ([]task.WorkflowAssessment, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListWorkflowAssessments(ctx, taskID)
}

// StartResultSubscriber consumes raw simulation results from the queue
// and feeds them through Ingest. Malformed or failing messages are
// logged and dropped; runners republish on their own retry schedule.
func (s *AssessmentService) StartResultSubscriber(ctx context.Context, queue messagequeue.Queue) (cancel func(), err error) {
	return queue.Subscribe(ctx, messagequeue.SubjectWorkflowResults, func(subject string, data []byte) error {
		var req IngestRequest
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Error("decode workflow result", "subject", subject, "error", err)
			return err
		}
		if _, err := s.Ingest(ctx, &req); err != nil {
			slog.Error("ingest workflow result",
				"task_id", req.TaskID, "workflow_id", req.WorkflowID, "error", err)
			return err
		}
		return nil
	})
}
