package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/domain/project"
	"github.com/tracedeck/tracedeck/internal/port/database"
)

// ProjectService handles project and milestone management.
type ProjectService struct {
	store database.Store
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store database.Store) *ProjectService {
	return &ProjectService{store: store}
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx)
}

// Get returns a project with milestones and team roster.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Create creates a project together with its initial milestones.
func (s *ProjectService) Create(ctx context.Context, req *project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &project.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Status:      project.StatusPlanning,
		TeamMembers: req.TeamMembers,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, m := range req.Milestones {
		p.Milestones = append(p.Milestones, project.Milestone{
			ID:          uuid.NewString(),
			ProjectID:   p.ID,
			Name:        m.Name,
			Description: m.Description,
			DueDate:     m.DueDate,
			SortOrder:   m.SortOrder,
		})
	}
	for i := range p.TeamMembers {
		if p.TeamMembers[i].ID == "" {
			p.TeamMembers[i].ID = uuid.NewString()
		}
	}

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Update applies a partial update to a project.
func (s *ProjectService) Update(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error) {
	if err := project.ValidateUpdate(&req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.TeamMembers != nil {
		p.TeamMembers = *req.TeamMembers
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a project and everything under it.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProject(ctx, id)
}
