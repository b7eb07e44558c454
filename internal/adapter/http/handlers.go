package http

import (
	"net/http"

	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/project"
	"github.com/tracedeck/tracedeck/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Projects    *service.ProjectService
	Metrics     *service.MetricService
	Tasks       *service.TaskService
	Assignments *service.AssignmentService
	Submissions *service.SubmissionService
	Assessments *service.AssessmentService
	Statistics  *service.StatisticsService
}

// --- Projects ---

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	handleList(h.Projects.List)(w, r)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Projects.Get, "project not found")(w, r)
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Projects.Create)(w, r)
}

func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	handleUpdate[project.UpdateRequest](h.Projects.Update, "project not found")(w, r)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Projects.Delete, "project not found")(w, r)
}

// GetProjectStatistics returns the task rollup for a project, optionally
// scoped to one phase via ?phase_id=.
func (h *Handlers) GetProjectStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Statistics.ForProject(r.Context(), urlParam(r, "id"), r.URL.Query().Get("phase_id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Metric catalog ---

func (h *Handlers) ListMetrics(w http.ResponseWriter, r *http.Request) {
	handleList(h.Metrics.List)(w, r)
}

func (h *Handlers) GetMetric(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Metrics.Get, "metric not found")(w, r)
}

func (h *Handlers) CreateMetric(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Metrics.Create)(w, r)
}

func (h *Handlers) UpdateMetric(w http.ResponseWriter, r *http.Request) {
	handleUpdate[metric.UpdateRequest](h.Metrics.Update, "metric not found")(w, r)
}

func (h *Handlers) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Metrics.Delete, "metric not found")(w, r)
}
