package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/config"
	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/port/database"
	"github.com/tracedeck/tracedeck/internal/port/messagequeue"
)

// SubmissionService records model submissions against tasks and handles
// the validation review of each submission.
type SubmissionService struct {
	store  database.Store
	tasks  *TaskService
	policy config.DecisionPolicy
	inst   Instruments
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(store database.Store, tasks *TaskService, policy config.DecisionPolicy, inst Instruments) *SubmissionService {
	return &SubmissionService{store: store, tasks: tasks, policy: policy, inst: inst}
}

// Submit records a model submission on a task. Resubmitting the same
// model version is allowed and creates a new pending record.
func (s *SubmissionService) Submit(ctx context.Context, taskID string, req *task.SubmitRequest, submittedBy string) (*task.ModelSubmission, error) {
	if strings.TrimSpace(req.ModelID) == "" {
		return nil, fmt.Errorf("model_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(req.ModelVersion) == "" {
		return nil, fmt.Errorf("model_version is required: %w", domain.ErrValidation)
	}
	for i := range req.MetricMatches {
		mm := &req.MetricMatches[i]
		if mm.ParameterPath == "" || mm.MetricID == "" {
			return nil, fmt.Errorf("metric match %d: parameter_path and metric_id are required: %w", i, domain.ErrValidation)
		}
	}

	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	sub := &task.ModelSubmission{
		ID:               uuid.NewString(),
		TaskID:           taskID,
		ModelID:          req.ModelID,
		ModelName:        req.ModelName,
		ModelVersion:     req.ModelVersion,
		Description:      req.Description,
		MetricMatches:    req.MetricMatches,
		ValidationStatus: task.ValidationPending,
		SubmittedBy:      submittedBy,
		SubmittedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateModelSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("create model submission: %w", err)
	}

	slog.Info("model submitted",
		"task_id", taskID, "model_id", sub.ModelID, "model_version", sub.ModelVersion)
	s.tasks.publish(ctx, messagequeue.SubjectModelSubmitted, sub)
	s.tasks.broadcast(ctx, "task.model_submitted", sub)
	s.tasks.invalidate(ctx, t.ProjectID, t.PhaseID)
	return sub, nil
}

// Decide records a validation decision on a submission. Under the
// default first_decision_wins policy a settled submission rejects any
// further decision; latest_decision_wins lets reviewers revise, keeping
// only the newest decision.
func (s *SubmissionService) Decide(ctx context.Context, taskID, submissionID string, status task.ValidationStatus, comments, decidedBy string) (*task.ModelSubmission, error) {
	if status != task.ValidationValidated && status != task.ValidationRejected {
		return nil, fmt.Errorf("decision must be validated or rejected, got %q: %w", status, domain.ErrValidation)
	}

	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sub := t.Submission(submissionID)
	if sub == nil {
		return nil, fmt.Errorf("submission %s not found on task %s: %w", submissionID, taskID, domain.ErrNotFound)
	}
	if sub.Decided() && s.policy != config.LatestDecisionWins {
		return nil, fmt.Errorf("submission %s already %s: %w", sub.ID, sub.ValidationStatus, domain.ErrConflict)
	}

	now := time.Now().UTC()
	sub.ValidationStatus = status
	sub.ValidationComments = comments
	sub.ValidatedBy = decidedBy
	sub.ValidatedAt = &now

	if err := s.store.UpdateModelSubmission(ctx, sub); err != nil {
		return nil, err
	}

	slog.Info("submission decided",
		"task_id", taskID, "submission_id", sub.ID, "status", status, "by", decidedBy)
	if s.inst != nil {
		s.inst.DecisionRecorded(ctx, string(status))
	}
	s.tasks.publish(ctx, messagequeue.SubjectModelValidated, sub)
	s.tasks.broadcast(ctx, "task.model_validated", sub)
	return sub, nil
}
