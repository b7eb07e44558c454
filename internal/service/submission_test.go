package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tracedeck/tracedeck/internal/config"
	"github.com/tracedeck/tracedeck/internal/domain"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

func submissionFixture(t *testing.T, policy config.DecisionPolicy) (*mockStore, *SubmissionService) {
	t.Helper()
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	svc := NewSubmissionService(store, NewTaskService(store, nil, nil, nil, nil), policy, nil)
	return store, svc
}

func TestSubmitModel(t *testing.T) {
	_, svc := submissionFixture(t, config.FirstDecisionWins)

	sub, err := svc.Submit(context.Background(), "t1", &task.SubmitRequest{
		ModelID:      "mdl-42",
		ModelName:    "Pack thermal 1D",
		ModelVersion: "2.3.0",
		MetricMatches: []task.MetricMatch{
			{ParameterPath: "pack.cell[0].temp_max", MetricID: "m1", MatchType: task.MatchDirect, Confidence: task.ConfidenceHigh},
		},
	}, "u-eng")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.ValidationStatus != task.ValidationPending {
		t.Errorf("status = %q, want pending", sub.ValidationStatus)
	}
	if sub.SubmittedBy != "u-eng" {
		t.Errorf("submitted_by = %q", sub.SubmittedBy)
	}
}

func TestSubmitSameVersionTwice(t *testing.T) {
	store, svc := submissionFixture(t, config.FirstDecisionWins)

	req := &task.SubmitRequest{ModelID: "mdl-42", ModelVersion: "2.3.0"}
	if _, err := svc.Submit(context.Background(), "t1", req, "u-eng"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), "t1", req, "u-eng"); err != nil {
		t.Fatalf("second Submit of same version: %v", err)
	}
	got, _ := store.GetTask(context.Background(), "t1")
	if len(got.ModelSubmissions) != 2 {
		t.Errorf("submissions = %d, want 2 accumulated records", len(got.ModelSubmissions))
	}
}

func TestSubmitMissingFields(t *testing.T) {
	_, svc := submissionFixture(t, config.FirstDecisionWins)

	_, err := svc.Submit(context.Background(), "t1", &task.SubmitRequest{ModelVersion: "1.0"}, "u-eng")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing model_id: err = %v, want ErrValidation", err)
	}
	_, err = svc.Submit(context.Background(), "t1", &task.SubmitRequest{ModelID: "mdl"}, "u-eng")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing model_version: err = %v, want ErrValidation", err)
	}
}

func TestDecideFirstDecisionWins(t *testing.T) {
	_, svc := submissionFixture(t, config.FirstDecisionWins)

	sub, err := svc.Submit(context.Background(), "t1", &task.SubmitRequest{ModelID: "mdl-42", ModelVersion: "1.0"}, "u-eng")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	decided, err := svc.Decide(context.Background(), "t1", sub.ID, task.ValidationValidated, "meets target", "u-lead")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.ValidationStatus != task.ValidationValidated || decided.ValidatedAt == nil {
		t.Errorf("decision not recorded: %+v", decided)
	}

	_, err = svc.Decide(context.Background(), "t1", sub.ID, task.ValidationRejected, "changed my mind", "u-lead")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second decision err = %v, want ErrConflict", err)
	}
}

func TestDecideLatestDecisionWins(t *testing.T) {
	store, svc := submissionFixture(t, config.LatestDecisionWins)

	sub, err := svc.Submit(context.Background(), "t1", &task.SubmitRequest{ModelID: "mdl-42", ModelVersion: "1.0"}, "u-eng")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Decide(context.Background(), "t1", sub.ID, task.ValidationRejected, "mesh too coarse", "u-lead"); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if _, err := svc.Decide(context.Background(), "t1", sub.ID, task.ValidationValidated, "re-reviewed", "u-lead"); err != nil {
		t.Fatalf("revised decision: %v", err)
	}

	got, _ := store.GetTask(context.Background(), "t1")
	if got.ModelSubmissions[0].ValidationStatus != task.ValidationValidated {
		t.Errorf("status = %q, want latest decision to stick", got.ModelSubmissions[0].ValidationStatus)
	}
}

func TestDecideInvalidStatus(t *testing.T) {
	_, svc := submissionFixture(t, config.FirstDecisionWins)

	_, err := svc.Decide(context.Background(), "t1", "s1", task.ValidationPending, "", "u-lead")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for pending decision", err)
	}
}
