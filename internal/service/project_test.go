package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/project"
)

func TestProjectCreate(t *testing.T) {
	store := newMockStore()
	svc := NewProjectService(store)

	p, err := svc.Create(context.Background(), &project.CreateRequest{
		Name: "ADAS sensor fusion",
		Milestones: []project.CreateMilestoneRequest{
			{Name: "Concept", SortOrder: 1},
			{Name: "Detail design", SortOrder: 2},
		},
		TeamMembers: []project.TeamMember{{UserID: "u-lead", UserName: "Mori"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != project.StatusPlanning {
		t.Errorf("status = %q, want planning", p.Status)
	}
	if len(p.Milestones) != 2 || p.Milestones[0].ID == "" {
		t.Errorf("milestones not materialized: %+v", p.Milestones)
	}
	if p.Milestones[0].ProjectID != p.ID {
		t.Errorf("milestone project_id = %q, want %q", p.Milestones[0].ProjectID, p.ID)
	}
}

func TestProjectCreateInvalid(t *testing.T) {
	svc := NewProjectService(newMockStore())

	_, err := svc.Create(context.Background(), &project.CreateRequest{Name: "  "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestProjectUpdatePartial(t *testing.T) {
	store := newMockStore()
	seeded := store.seedProject("p1")
	svc := NewProjectService(store)

	status := project.StatusCompleted
	got, err := svc.Update(context.Background(), "p1", project.UpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != project.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Name != seeded.Name {
		t.Errorf("name changed on partial update: %q", got.Name)
	}
}

func TestProjectUpdateBadStatus(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	svc := NewProjectService(store)

	status := project.Status("abandoned")
	_, err := svc.Update(context.Background(), "p1", project.UpdateRequest{Status: &status})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestProjectDelete(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	svc := NewProjectService(store)

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}
