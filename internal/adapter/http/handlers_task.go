package http

import (
	"net/http"

	otelx "github.com/tracedeck/tracedeck/internal/adapter/otel"
	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/service"
)

// --- Tasks ---

// ListTasks supports filtering by project_id, phase_id, user_id, status,
// priority, and a free-text search over title and description.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, task.Query{
		ProjectID: r.URL.Query().Get("project_id"),
		UserID:    r.URL.Query().Get("user_id"),
	})
}

// ListProjectTasks lists tasks of one project, with the same secondary
// filters as ListTasks.
func (h *Handlers) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, task.Query{ProjectID: urlParam(r, "id")})
}

// ListUserTasks is the per-user task inbox: tasks where the user is the
// assignee or a collaborator, across all projects.
func (h *Handlers) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, task.Query{UserID: urlParam(r, "userID")})
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request, query task.Query) {
	q := r.URL.Query()
	query.PhaseID = q.Get("phase_id")
	query.Status = task.Status(q.Get("status"))
	query.Priority = task.Priority(q.Get("priority"))
	query.Search = q.Get("search")

	if query.Status != "" && !task.ValidStatus(query.Status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if query.Priority != "" && !task.ValidPriority(query.Priority) {
		writeError(w, http.StatusBadRequest, "unknown priority filter")
		return
	}

	tasks, err := h.Tasks.List(r.Context(), query)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tasks.Get, "task not found")(w, r)
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.CreateRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.Create(r.Context(), &req, actorID(r))
	if err != nil {
		writeDomainError(w, err, "project or phase not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// CreateProjectTask creates a task under the project in the URL; a
// project_id in the body is ignored.
func (h *Handlers) CreateProjectTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.CreateRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = urlParam(r, "id")
	t, err := h.Tasks.Create(r.Context(), &req, actorID(r))
	if err != nil {
		writeDomainError(w, err, "project or phase not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	handleUpdate[task.UpdateRequest](h.Tasks.Update, "task not found")(w, r)
}

func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tasks.Delete, "task not found")(w, r)
}

// --- Metric assignments ---

type assignMetricRequest struct {
	MetricID string `json:"metric_id"`
}

func (h *Handlers) AssignMetric(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[assignMetricRequest](w, r)
	if !ok {
		return
	}
	if req.MetricID == "" {
		writeError(w, http.StatusBadRequest, "metric_id is required")
		return
	}
	a, err := h.Assignments.AddMetric(r.Context(), urlParam(r, "id"), req.MetricID, actorID(r))
	if err != nil {
		writeDomainError(w, err, "task or metric not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) UpdateAssessment(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.AssessmentUpdate](w, r)
	if !ok {
		return
	}
	a, err := h.Assignments.UpdateAssessment(r.Context(), urlParam(r, "id"), urlParam(r, "assignmentID"), req, actorID(r))
	if err != nil {
		writeDomainError(w, err, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.ProgressUpdate](w, r)
	if !ok {
		return
	}
	a, err := h.Assignments.UpdateProgress(r.Context(), urlParam(r, "id"), urlParam(r, "assignmentID"), req, actorID(r))
	if err != nil {
		writeDomainError(w, err, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- Model submissions ---

func (h *Handlers) SubmitModel(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.SubmitRequest](w, r)
	if !ok {
		return
	}
	sub, err := h.Submissions.Submit(r.Context(), urlParam(r, "id"), &req, actorID(r))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type validateModelRequest struct {
	Status   task.ValidationStatus `json:"status"`
	Comments string                `json:"comments,omitempty"`
}

func (h *Handlers) ValidateModel(w http.ResponseWriter, r *http.Request) {
	taskID := urlParam(r, "id")
	submissionID := urlParam(r, "submissionID")

	req, ok := readJSON[validateModelRequest](w, r)
	if !ok {
		return
	}

	ctx, span := otelx.StartDecisionSpan(r.Context(), taskID, submissionID)
	defer span.End()

	sub, err := h.Submissions.Decide(ctx, taskID, submissionID, req.Status, req.Comments, actorID(r))
	if err != nil {
		writeDomainError(w, err, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// --- Workflow assessments ---

func (h *Handlers) IngestAssessment(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.IngestRequest](w, r)
	if !ok {
		return
	}
	req.TaskID = urlParam(r, "id")

	ctx, span := otelx.StartIngestSpan(r.Context(), req.TaskID, req.WorkflowID)
	defer span.End()

	a, err := h.Assessments.Ingest(ctx, &req)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) ListAssessments(w http.ResponseWriter, r *http.Request) {
	history, err := h.Assessments.History(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	if history == nil {
		history = []task.WorkflowAssessment{}
	}
	writeJSON(w, http.StatusOK, history)
}
