// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/project"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

// Store is the port interface for database operations. Services depend on
// this interface only, so a different persistence backend can be
// substituted without touching call sites.
type Store interface {
	// Projects
	ListProjects(ctx context.Context) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, p *project.Project) error
	UpdateProject(ctx context.Context, p *project.Project) error
	DeleteProject(ctx context.Context, id string) error

	// NextTaskSeq atomically reserves the next task sequence number for a
	// project. Reserved numbers are never reused, so task codes stay
	// unique across deletions and concurrent creators.
	NextTaskSeq(ctx context.Context, projectID string) (int, error)

	// Metric catalog
	ListMetrics(ctx context.Context) ([]metric.Metric, error)
	GetMetric(ctx context.Context, id string) (*metric.Metric, error)
	CreateMetric(ctx context.Context, m *metric.Metric) error
	UpdateMetric(ctx context.Context, m *metric.Metric) error
	DeleteMetric(ctx context.Context, id string) error

	// Tasks. GetTask loads the owned collections (assignments,
	// submissions, deliverables); ListTasks returns them too, ordered by
	// creation time descending.
	ListTasks(ctx context.Context, q task.Query) ([]task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) error
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Metric assignments
	CreateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error
	UpdateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error

	// Model submissions
	CreateModelSubmission(ctx context.Context, s *task.ModelSubmission) error
	UpdateModelSubmission(ctx context.Context, s *task.ModelSubmission) error

	// Workflow assessments (append-only). ApplyWorkflowAssessment
	// appends the record and rewrites the progress of the given
	// assignments in one atomic write: either everything lands or
	// nothing does.
	ApplyWorkflowAssessment(ctx context.Context, a *task.WorkflowAssessment, updated []*task.MetricAssignment) error
	ListWorkflowAssessments(ctx context.Context, taskID string) ([]task.WorkflowAssessment, error)
}
