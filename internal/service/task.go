// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/port/database"
	"github.com/tracedeck/tracedeck/internal/port/messagequeue"
)

// Broadcaster pushes events to connected dashboard clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, event string, payload any)
}

// Instruments records domain-level telemetry. Implemented by the otel
// adapter; a nil value disables recording.
type Instruments interface {
	TaskCreated(ctx context.Context)
	AssessmentIngested(ctx context.Context, updatedAssignments int)
	DecisionRecorded(ctx context.Context, status string)
	AchievementObserved(ctx context.Context, rate float64)
}

// TaskService handles task lifecycle and queries.
type TaskService struct {
	store database.Store
	queue messagequeue.Queue
	hub   Broadcaster
	stats *StatisticsService
	inst  Instruments
}

// NewTaskService creates a new TaskService.
func NewTaskService(store database.Store, queue messagequeue.Queue, hub Broadcaster, stats *StatisticsService, inst Instruments) *TaskService {
	return &TaskService{store: store, queue: queue, hub: hub, stats: stats, inst: inst}
}

// List returns tasks matching the query, newest first.
func (s *TaskService) List(ctx context.Context, q task.Query) ([]task.Task, error) {
	return s.store.ListTasks(ctx, q)
}

// Get returns a task with its owned collections.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Create creates a task inside a project phase. The project and phase
// must resolve; assignee and collaborator display names are copied from
// the project roster at this point and do not track later roster edits.
func (s *TaskService) Create(ctx context.Context, req *task.CreateRequest, creatorID string) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project %s: %w", req.ProjectID, err)
	}
	phase := p.Milestone(req.PhaseID)
	if phase == nil {
		return nil, fmt.Errorf("phase %s does not belong to project %s: %w", req.PhaseID, p.ID, domain.ErrValidation)
	}

	seq, err := s.store.NextTaskSeq(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reserve task code: %w", err)
	}

	now := time.Now().UTC()
	t := &task.Task{
		ID:             uuid.NewString(),
		ProjectID:      p.ID,
		PhaseID:        phase.ID,
		PhaseName:      phase.Name,
		Code:           task.CodeFor(seq),
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Priority:       req.Priority,
		Status:         task.StatusPending,
		AssigneeID:     req.AssigneeID,
		AssigneeName:   p.MemberName(req.AssigneeID),
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		Deliverables:   req.Deliverables,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Type == "" {
		t.Type = task.TypeModeling
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	for _, id := range req.CollaboratorIDs {
		t.Collaborators = append(t.Collaborators, task.Collaborator{
			UserID:   id,
			UserName: p.MemberName(id),
		})
	}
	for i := range t.Deliverables {
		if t.Deliverables[i].ID == "" {
			t.Deliverables[i].ID = uuid.NewString()
		}
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.Info("task created",
		"task_id", t.ID, "code", t.Code, "project_id", t.ProjectID, "creator", creatorID)
	if s.inst != nil {
		s.inst.TaskCreated(ctx)
	}
	s.publish(ctx, messagequeue.SubjectTaskCreated, t)
	s.broadcast(ctx, "task.created", t)
	s.invalidate(ctx, t.ProjectID, t.PhaseID)
	return t, nil
}

// Update applies a partial update and restamps UpdatedAt.
func (s *TaskService) Update(ctx context.Context, id string, req task.UpdateRequest) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(t)
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectTaskUpdated, t)
	s.broadcast(ctx, "task.updated", t)
	s.invalidate(ctx, t.ProjectID, t.PhaseID)
	return t, nil
}

// Delete removes a task outright. Queries and statistics reflect the
// removal immediately; there is no soft-delete path (cancelling a task
// is a status update, deleting it is final).
func (s *TaskService) Delete(ctx context.Context, id string) error {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}

	slog.Info("task deleted", "task_id", id, "code", t.Code)
	s.publish(ctx, messagequeue.SubjectTaskDeleted, map[string]string{
		"id": t.ID, "project_id": t.ProjectID, "code": t.Code,
	})
	s.broadcast(ctx, "task.deleted", map[string]string{"id": t.ID})
	s.invalidate(ctx, t.ProjectID, t.PhaseID)
	return nil
}

// publish marshals payload and sends it to the queue. Queue failures are
// logged, not returned: the store is the source of truth and consumers
// reconcile on their own schedule.
func (s *TaskService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish event", "subject", subject, "error", err)
	}
}

func (s *TaskService) broadcast(ctx context.Context, event string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, event, payload)
	}
}

func (s *TaskService) invalidate(ctx context.Context, projectID, phaseID string) {
	if s.stats != nil {
		s.stats.Invalidate(ctx, projectID, phaseID)
	}
}
