package service

import (
	"context"
	"sort"
	"time"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/project"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

// mockStore is an in-memory database.Store for service tests. Err fields
// force a failure on the corresponding call.
type mockStore struct {
	projects    map[string]*project.Project
	metrics     map[string]*metric.Metric
	tasks       map[string]*task.Task
	assessments map[string][]task.WorkflowAssessment
	seq         map[string]int

	getProjectErr error
	getTaskErr    error
	createTaskErr error
	updateTaskErr error
	nextSeqErr    error
	createAsgnErr error
	updateAsgnErr error
	createSubErr  error
	updateSubErr  error
	applyWfaErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		projects:    make(map[string]*project.Project),
		metrics:     make(map[string]*metric.Metric),
		tasks:       make(map[string]*task.Task),
		assessments: make(map[string][]task.WorkflowAssessment),
		seq:         make(map[string]int),
	}
}

func (m *mockStore) ListProjects(ctx context.Context) ([]project.Project, error) {
	out := make([]project.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	if m.getProjectErr != nil {
		return nil, m.getProjectErr
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreateProject(ctx context.Context, p *project.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *mockStore) UpdateProject(ctx context.Context, p *project.Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockStore) DeleteProject(ctx context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockStore) NextTaskSeq(ctx context.Context, projectID string) (int, error) {
	if m.nextSeqErr != nil {
		return 0, m.nextSeqErr
	}
	if _, ok := m.projects[projectID]; !ok {
		return 0, domain.ErrNotFound
	}
	m.seq[projectID]++
	return m.seq[projectID], nil
}

func (m *mockStore) ListMetrics(ctx context.Context) ([]metric.Metric, error) {
	out := make([]metric.Metric, 0, len(m.metrics))
	for _, mt := range m.metrics {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockStore) GetMetric(ctx context.Context, id string) (*metric.Metric, error) {
	mt, ok := m.metrics[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mt
	return &cp, nil
}

func (m *mockStore) CreateMetric(ctx context.Context, mt *metric.Metric) error {
	for _, existing := range m.metrics {
		if existing.Code == mt.Code {
			return domain.ErrConflict
		}
	}
	m.metrics[mt.ID] = mt
	return nil
}

func (m *mockStore) UpdateMetric(ctx context.Context, mt *metric.Metric) error {
	if _, ok := m.metrics[mt.ID]; !ok {
		return domain.ErrNotFound
	}
	m.metrics[mt.ID] = mt
	return nil
}

func (m *mockStore) DeleteMetric(ctx context.Context, id string) error {
	if _, ok := m.metrics[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.metrics, id)
	return nil
}

func (m *mockStore) ListTasks(ctx context.Context, q task.Query) ([]task.Task, error) {
	var out []task.Task
	for _, t := range m.tasks {
		if q.Matches(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) GetTask(ctx context.Context, id string) (*task.Task, error) {
	if m.getTaskErr != nil {
		return nil, m.getTaskErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	cp.MetricAssignments = append([]task.MetricAssignment(nil), t.MetricAssignments...)
	cp.ModelSubmissions = append([]task.ModelSubmission(nil), t.ModelSubmissions...)
	return &cp, nil
}

func (m *mockStore) CreateTask(ctx context.Context, t *task.Task) error {
	if m.createTaskErr != nil {
		return m.createTaskErr
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *mockStore) UpdateTask(ctx context.Context, t *task.Task) error {
	if m.updateTaskErr != nil {
		return m.updateTaskErr
	}
	if _, ok := m.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *mockStore) DeleteTask(ctx context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) CreateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error {
	if m.createAsgnErr != nil {
		return m.createAsgnErr
	}
	t, ok := m.tasks[a.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	if t.AssignmentForMetric(a.MetricID) != nil {
		return domain.ErrConflict
	}
	t.MetricAssignments = append(t.MetricAssignments, *a)
	return nil
}

func (m *mockStore) UpdateMetricAssignment(ctx context.Context, a *task.MetricAssignment) error {
	if m.updateAsgnErr != nil {
		return m.updateAsgnErr
	}
	t, ok := m.tasks[a.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	existing := t.Assignment(a.ID)
	if existing == nil {
		return domain.ErrNotFound
	}
	*existing = *a
	return nil
}

func (m *mockStore) CreateModelSubmission(ctx context.Context, s *task.ModelSubmission) error {
	if m.createSubErr != nil {
		return m.createSubErr
	}
	t, ok := m.tasks[s.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.ModelSubmissions = append(t.ModelSubmissions, *s)
	return nil
}

func (m *mockStore) UpdateModelSubmission(ctx context.Context, s *task.ModelSubmission) error {
	if m.updateSubErr != nil {
		return m.updateSubErr
	}
	t, ok := m.tasks[s.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	existing := t.Submission(s.ID)
	if existing == nil {
		return domain.ErrNotFound
	}
	*existing = *s
	return nil
}

// ApplyWorkflowAssessment mirrors the adapter's all-or-nothing contract:
// every lookup is checked before anything is written.
func (m *mockStore) ApplyWorkflowAssessment(ctx context.Context, a *task.WorkflowAssessment, updated []*task.MetricAssignment) error {
	if m.applyWfaErr != nil {
		return m.applyWfaErr
	}
	t, ok := m.tasks[a.TaskID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, ma := range updated {
		if t.Assignment(ma.ID) == nil {
			return domain.ErrNotFound
		}
	}
	for _, ma := range updated {
		*t.Assignment(ma.ID) = *ma
	}
	m.assessments[a.TaskID] = append([]task.WorkflowAssessment{*a}, m.assessments[a.TaskID]...)
	return nil
}

func (m *mockStore) ListWorkflowAssessments(ctx context.Context, taskID string) ([]task.WorkflowAssessment, error) {
	return m.assessments[taskID], nil
}

// seedProject installs a project with one phase and a two-person roster.
func (m *mockStore) seedProject(id string) *project.Project {
	p := &project.Project{
		ID:     id,
		Name:   "EV battery thermal model",
		Status: project.StatusActive,
		Milestones: []project.Milestone{
			{ID: id + "-phase-1", Name: "Concept"},
		},
		TeamMembers: []project.TeamMember{
			{ID: "tm-1", UserID: "u-lead", UserName: "Mori", Role: "lead"},
			{ID: "tm-2", UserID: "u-eng", UserName: "Sato", Role: "engineer"},
		},
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	m.projects[id] = p
	return p
}

// seedTask installs a bare task under a seeded project's first phase.
func (m *mockStore) seedTask(id, projectID string) *task.Task {
	t := &task.Task{
		ID:        id,
		ProjectID: projectID,
		PhaseID:   projectID + "-phase-1",
		Code:      "TASK-001",
		Title:     "Thermal runaway simulation",
		Type:      task.TypeSimulation,
		Priority:  task.PriorityHigh,
		Status:    task.StatusInProgress,
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	m.tasks[id] = t
	return t
}
