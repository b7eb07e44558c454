package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Put("/projects/{id}", h.UpdateProject)
		r.Delete("/projects/{id}", h.DeleteProject)
		r.Get("/projects/{id}/statistics", h.GetProjectStatistics)
		r.Get("/projects/{id}/tasks", h.ListProjectTasks)
		r.Post("/projects/{id}/tasks", h.CreateProjectTask)

		// Per-user task inbox
		r.Get("/users/{userID}/tasks", h.ListUserTasks)

		// Metric catalog
		r.Get("/metrics", h.ListMetrics)
		r.Post("/metrics", h.CreateMetric)
		r.Get("/metrics/{id}", h.GetMetric)
		r.Put("/metrics/{id}", h.UpdateMetric)
		r.Delete("/metrics/{id}", h.DeleteMetric)

		// Tasks
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Put("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)

		// Metric assignments (nested under tasks)
		r.Post("/tasks/{id}/metrics", h.AssignMetric)
		r.Put("/tasks/{id}/assignments/{assignmentID}/assessment", h.UpdateAssessment)
		r.Put("/tasks/{id}/assignments/{assignmentID}/progress", h.UpdateProgress)

		// Model submissions (nested under tasks)
		r.Post("/tasks/{id}/models", h.SubmitModel)
		r.Post("/tasks/{id}/models/{submissionID}/validate", h.ValidateModel)

		// Workflow assessments (nested under tasks)
		r.Post("/tasks/{id}/assessments", h.IngestAssessment)
		r.Get("/tasks/{id}/assessments", h.ListAssessments)
	})
}
