package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/project"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Projects ---

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, status, version, created_at, updated_at
		 FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := s.loadProjectChildren(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, status, version, created_at, updated_at
		 FROM projects WHERE id = $1`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	if err := s.loadProjectChildren(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.Status, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "create project")
	}

	for i := range p.Milestones {
		m := &p.Milestones[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO milestones (id, project_id, name, description, due_date, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, p.ID, m.Name, m.Description, nullTime(m.DueDate), m.SortOrder)
		if err != nil {
			return fmt.Errorf("create milestone %s: %w", m.Name, err)
		}
	}
	for i := range p.TeamMembers {
		tm := &p.TeamMembers[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO team_members (id, project_id, user_id, user_name, role)
			 VALUES ($1, $2, $3, $4, $5)`,
			tm.ID, p.ID, tm.UserID, tm.UserName, tm.Role)
		if err != nil {
			return fmt.Errorf("create team member %s: %w", tm.UserID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE projects SET name = $2, description = $3, status = $4,
		        version = version + 1, updated_at = $5
		 WHERE id = $1 AND version = $6`,
		p.ID, p.Name, p.Description, p.Status, p.UpdatedAt, p.Version)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update project %s: %w", p.ID, domain.ErrConflict)
	}

	// The roster is replaced whole on update.
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE project_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear team members: %w", err)
	}
	for i := range p.TeamMembers {
		tm := &p.TeamMembers[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO team_members (id, project_id, user_id, user_name, role)
			 VALUES ($1, $2, $3, $4, $5)`,
			tm.ID, p.ID, tm.UserID, tm.UserName, tm.Role)
		if err != nil {
			return fmt.Errorf("create team member %s: %w", tm.UserID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete project %s", id)
}

// NextTaskSeq reserves the next task sequence number with a single
// atomic increment, so concurrent creators never observe the same value.
func (s *Store) NextTaskSeq(ctx context.Context, projectID string) (int, error) {
	var seq int
	err := s.pool.QueryRow(ctx,
		`UPDATE projects SET task_seq = task_seq + 1 WHERE id = $1 RETURNING task_seq`,
		projectID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("next task seq for project %s: %w", projectID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("next task seq for project %s: %w", projectID, err)
	}
	return seq, nil
}

func scanProject(row scannable) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) loadProjectChildren(ctx context.Context, p *project.Project) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, name, description, due_date, sort_order
		 FROM milestones WHERE project_id = $1 ORDER BY sort_order, name`, p.ID)
	if err != nil {
		return fmt.Errorf("load milestones: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m project.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.DueDate, &m.SortOrder); err != nil {
			return fmt.Errorf("scan milestone: %w", err)
		}
		p.Milestones = append(p.Milestones, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mrows, err := s.pool.Query(ctx,
		`SELECT id, user_id, user_name, role
		 FROM team_members WHERE project_id = $1 ORDER BY user_name`, p.ID)
	if err != nil {
		return fmt.Errorf("load team members: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var tm project.TeamMember
		if err := mrows.Scan(&tm.ID, &tm.UserID, &tm.UserName, &tm.Role); err != nil {
			return fmt.Errorf("scan team member: %w", err)
		}
		p.TeamMembers = append(p.TeamMembers, tm)
	}
	return mrows.Err()
}

// --- Metric catalog ---

const metricCols = `id, name, code, unit, target_value, current_value, verification_method, version, created_at, updated_at`

func (s *Store) ListMetrics(ctx context.Context) ([]metric.Metric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+metricCols+` FROM metrics ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	var metrics []metric.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (s *Store) GetMetric(ctx context.Context, id string) (*metric.Metric, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+metricCols+` FROM metrics WHERE id = $1`, id)

	m, err := scanMetric(row)
	if err != nil {
		return nil, notFoundWrap(err, "get metric %s", id)
	}
	return &m, nil
}

func (s *Store) CreateMetric(ctx context.Context, m *metric.Metric) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO metrics (id, name, code, unit, target_value, current_value, verification_method, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.Name, m.Code, m.Unit, m.TargetValue, m.CurrentValue, m.VerificationMethod,
		m.Version, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "create metric %s", m.Code)
	}
	return nil
}

func (s *Store) UpdateMetric(ctx context.Context, m *metric.Metric) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE metrics SET name = $2, unit = $3, target_value = $4, current_value = $5,
		        verification_method = $6, version = version + 1, updated_at = $7
		 WHERE id = $1 AND version = $8`,
		m.ID, m.Name, m.Unit, m.TargetValue, m.CurrentValue, m.VerificationMethod,
		m.UpdatedAt, m.Version)
	if err != nil {
		return fmt.Errorf("update metric %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update metric %s: %w", m.ID, domain.ErrConflict)
	}
	m.Version++
	return nil
}

func (s *Store) DeleteMetric(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM metrics WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete metric %s", id)
}

func scanMetric(row scannable) (metric.Metric, error) {
	var m metric.Metric
	err := row.Scan(&m.ID, &m.Name, &m.Code, &m.Unit, &m.TargetValue, &m.CurrentValue,
		&m.VerificationMethod, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	return m, nil
}
