package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

const taskCols = `id, project_id, phase_id, phase_name, code, title, description,
	type, priority, status, assignee_id, assignee_name, collaborators,
	start_date, due_date, actual_start_date, actual_end_date,
	estimated_hours, actual_hours, progress, deliverables,
	version, created_at, updated_at`

// --- Tasks ---

func (s *Store) ListTasks(ctx context.Context, q task.Query) ([]task.Task, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if q.ProjectID != "" {
		add("project_id = ?", q.ProjectID)
	}
	if q.PhaseID != "" {
		add("phase_id = ?", q.PhaseID)
	}
	if q.Status != "" {
		add("status = ?", q.Status)
	}
	if q.Priority != "" {
		add("priority = ?", q.Priority)
	}
	if q.UserID != "" {
		// Assignee or any collaborator.
		add("(assignee_id = ? OR collaborators @> jsonb_build_array(jsonb_build_object('user_id', ?::text)))", q.UserID)
		args = append(args, q.UserID)
		where[len(where)-1] = strings.Replace(where[len(where)-1], "?", "$"+strconv.Itoa(len(args)), 1)
	}
	if q.Search != "" {
		add("(title ILIKE '%' || ? || '%' OR description ILIKE '%' || ? || '%')", q.Search)
		args = append(args, q.Search)
		where[len(where)-1] = strings.Replace(where[len(where)-1], "?", "$"+strconv.Itoa(len(args)), 1)
	}

	query := `SELECT ` + taskCols + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := s.loadTaskChildren(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE id = $1`, id)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %s", id)
	}
	if err := s.loadTaskChildren(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	collaborators, err := json.Marshal(orEmpty(t.Collaborators))
	if err != nil {
		return fmt.Errorf("marshal collaborators: %w", err)
	}
	deliverables, err := json.Marshal(orEmpty(t.Deliverables))
	if err != nil {
		return fmt.Errorf("marshal deliverables: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, phase_id, phase_name, code, title, description,
		        type, priority, status, assignee_id, assignee_name, collaborators,
		        start_date, due_date, estimated_hours, actual_hours, progress,
		        deliverables, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		t.ID, t.ProjectID, t.PhaseID, t.PhaseName, t.Code, t.Title, t.Description,
		t.Type, t.Priority, t.Status, t.AssigneeID, t.AssigneeName, collaborators,
		nullTime(t.StartDate), nullTime(t.DueDate), t.EstimatedHours, t.ActualHours,
		t.Progress, deliverables, t.Version, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "create task %s", t.Code)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	deliverables, err := json.Marshal(orEmpty(t.Deliverables))
	if err != nil {
		return fmt.Errorf("marshal deliverables: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $2, description = $3, type = $4, priority = $5,
		        status = $6, assignee_id = $7, assignee_name = $8,
		        start_date = $9, due_date = $10, actual_start_date = $11, actual_end_date = $12,
		        estimated_hours = $13, actual_hours = $14, progress = $15,
		        deliverables = $16, version = version + 1, updated_at = $17
		 WHERE id = $1 AND version = $18`,
		t.ID, t.Title, t.Description, t.Type, t.Priority,
		t.Status, t.AssigneeID, t.AssigneeName,
		nullTime(t.StartDate), nullTime(t.DueDate), nullTime(t.ActualStartDate), nullTime(t.ActualEndDate),
		t.EstimatedHours, t.ActualHours, t.Progress,
		deliverables, t.UpdatedAt, t.Version)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update task %s: %w", t.ID, domain.ErrConflict)
	}
	t.Version++
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete task %s", id)
}

func scanTask(row scannable) (task.Task, error) {
	var (
		t             task.Task
		collaborators []byte
		deliverables  []byte
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.PhaseID, &t.PhaseName, &t.Code, &t.Title, &t.Description,
		&t.Type, &t.Priority, &t.Status, &t.AssigneeID, &t.AssigneeName, &collaborators,
		&t.StartDate, &t.DueDate, &t.ActualStartDate, &t.ActualEndDate,
		&t.EstimatedHours, &t.ActualHours, &t.Progress, &deliverables,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(collaborators, &t.Collaborators); err != nil {
		return t, fmt.Errorf("unmarshal collaborators: %w", err)
	}
	if err := json.Unmarshal(deliverables, &t.Deliverables); err != nil {
		return t, fmt.Errorf("unmarshal deliverables: %w", err)
	}
	return t, nil
}

func (s *Store) loadTaskChildren(ctx context.Context, t *task.Task) error {
	assignments, err := s.listAssignments(ctx, t.ID)
	if err != nil {
		return err
	}
	submissions, err := s.listSubmissions(ctx, t.ID)
	if err != nil {
		return err
	}
	t.MetricAssignments = orEmpty(assignments)
	t.ModelSubmissions = orEmpty(submissions)
	return nil
}

// --- Metric assignments ---

func (s *Store) CreateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error {
	assessment, err := json.Marshal(a.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	progress, err := json.Marshal(a.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO metric_assignments (id, task_id, metric_id, metric_name, metric_code, assessment, progress, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.TaskID, a.MetricID, a.MetricName, a.MetricCode, assessment, progress, a.CreatedAt)
	if err != nil {
		return conflictWrap(err, "create metric assignment %s/%s", a.TaskID, a.MetricCode)
	}
	return nil
}

func (s *Store) UpdateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error {
	assessment, err := json.Marshal(a.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	progress, err := json.Marshal(a.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE metric_assignments SET assessment = $2, progress = $3 WHERE id = $1`,
		a.ID, assessment, progress)
	return execExpectOne(tag, err, "update metric assignment %s", a.ID)
}

func (s *Store) listAssignments(ctx context.Context, taskID string) ([]task.MetricAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, metric_id, metric_name, metric_code, assessment, progress, created_at
		 FROM metric_assignments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list metric assignments: %w", err)
	}
	defer rows.Close()

	var out []task.MetricAssignment
	for rows.Next() {
		var (
			a          task.MetricAssignment
			assessment []byte
			progress   []byte
		)
		err := rows.Scan(&a.ID, &a.TaskID, &a.MetricID, &a.MetricName, &a.MetricCode,
			&assessment, &progress, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan metric assignment: %w", err)
		}
		if err := json.Unmarshal(assessment, &a.Assessment); err != nil {
			return nil, fmt.Errorf("unmarshal assessment: %w", err)
		}
		if err := json.Unmarshal(progress, &a.Progress); err != nil {
			return nil, fmt.Errorf("unmarshal progress: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Model submissions ---

func (s *Store) CreateModelSubmission(ctx context.Context, sub *task.ModelSubmission) error {
	matches, err := json.Marshal(orEmpty(sub.MetricMatches))
	if err != nil {
		return fmt.Errorf("marshal metric matches: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO model_submissions (id, task_id, model_id, model_name, model_version,
		        description, metric_matches, validation_status, validation_comments,
		        validated_by, validated_at, submitted_by, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sub.ID, sub.TaskID, sub.ModelID, sub.ModelName, sub.ModelVersion,
		sub.Description, matches, sub.ValidationStatus, sub.ValidationComments,
		sub.ValidatedBy, nullTime(sub.ValidatedAt), sub.SubmittedBy, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create model submission: %w", err)
	}
	return nil
}

func (s *Store) UpdateModelSubmission(ctx context.Context, sub *task.ModelSubmission) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE model_submissions SET validation_status = $2, validation_comments = $3,
		        validated_by = $4, validated_at = $5
		 WHERE id = $1`,
		sub.ID, sub.ValidationStatus, sub.ValidationComments,
		sub.ValidatedBy, nullTime(sub.ValidatedAt))
	return execExpectOne(tag, err, "update model submission %s", sub.ID)
}

func (s *Store) listSubmissions(ctx context.Context, taskID string) ([]task.ModelSubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, model_id, model_name, model_version, description, metric_matches,
		        validation_status, validation_comments, validated_by, validated_at,
		        submitted_by, submitted_at
		 FROM model_submissions WHERE task_id = $1 ORDER BY submitted_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list model submissions: %w", err)
	}
	defer rows.Close()

	var out []task.ModelSubmission
	for rows.Next() {
		var (
			sub     task.ModelSubmission
			matches []byte
		)
		err := rows.Scan(&sub.ID, &sub.TaskID, &sub.ModelID, &sub.ModelName, &sub.ModelVersion,
			&sub.Description, &matches, &sub.ValidationStatus, &sub.ValidationComments,
			&sub.ValidatedBy, &sub.ValidatedAt, &sub.SubmittedBy, &sub.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("scan model submission: %w", err)
		}
		if err := json.Unmarshal(matches, &sub.MetricMatches); err != nil {
			return nil, fmt.Errorf("unmarshal metric matches: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// --- Workflow assessments ---

// ApplyWorkflowAssessment inserts the assessment and rewrites the covered
// assignments inside one transaction, so a failed progress write cannot
// leave a half-applied result behind.
func (s *Store) ApplyWorkflowAssessment(ctx context.Context, a *task.WorkflowAssessment, updated []*task.MetricAssignment) error {
	metrics, err := json.Marshal(a.AssessedMetrics)
	if err != nil {
		return fmt.Errorf("marshal assessed metrics: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO workflow_assessments (id, task_id, workflow_id, workflow_name,
		        executed_by, executed_at, assessed_metrics, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.TaskID, a.WorkflowID, a.WorkflowName,
		a.ExecutedBy, a.ExecutedAt, metrics, a.Summary, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create workflow assessment: %w", err)
	}

	for _, ma := range updated {
		assessment, err := json.Marshal(ma.Assessment)
		if err != nil {
			return fmt.Errorf("marshal assessment: %w", err)
		}
		progress, err := json.Marshal(ma.Progress)
		if err != nil {
			return fmt.Errorf("marshal progress: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE metric_assignments SET assessment = $2, progress = $3 WHERE id = $1`,
			ma.ID, assessment, progress)
		if err := execExpectOne(tag, err, "update metric assignment %s", ma.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ListWorkflowAssessments(ctx context.Context, taskID string) ([]task.WorkflowAssessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, workflow_id, workflow_name, executed_by, executed_at,
		        assessed_metrics, summary, created_at
		 FROM workflow_assessments WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list workflow assessments: %w", err)
	}
	defer rows.Close()

	var out []task.WorkflowAssessment
	for rows.Next() {
		var (
			a       task.WorkflowAssessment
			metrics []byte
		)
		err := rows.Scan(&a.ID, &a.TaskID, &a.WorkflowID, &a.WorkflowName, &a.ExecutedBy,
			&a.ExecutedAt, &metrics, &a.Summary, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan workflow assessment: %w", err)
		}
		if err := json.Unmarshal(metrics, &a.AssessedMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal assessed metrics: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
