package service

import (
	"context"
	"testing"
	"time"

	"github.com/tracedeck/tracedeck/internal/config"
	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/domain/task"
)

// mockCache is an in-memory cache.Cache that counts operations. TTLs are
// ignored; tests drive invalidation explicitly.
type mockCache struct {
	data map[string][]byte
	hits int
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestStatisticsForProject(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	onTime := due.Add(-24 * time.Hour)
	late := due.Add(24 * time.Hour)

	t1 := store.seedTask("t1", "p1")
	t1.Status = task.StatusCompleted
	t1.DueDate = &due
	t1.ActualEndDate = &onTime
	t1.Progress = 100

	t2 := store.seedTask("t2", "p1")
	t2.Status = task.StatusCompleted
	t2.DueDate = &due
	t2.ActualEndDate = &late
	t2.Progress = 100

	t3 := store.seedTask("t3", "p1")
	t3.Status = task.StatusInProgress
	t3.Progress = 40

	svc := NewStatisticsService(store, nil, time.Minute)
	stats, err := svc.ForProject(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}

	if stats.TotalTasks != 3 {
		t.Errorf("total = %d, want 3", stats.TotalTasks)
	}
	if got := stats.CompletionRate; got < 66.6 || got > 66.7 {
		t.Errorf("completion rate = %v, want 2/3", got)
	}
	if stats.OnTimeRate != 50 {
		t.Errorf("on-time rate = %v, want 50 (one of two completed)", stats.OnTimeRate)
	}
	if stats.AverageProgress != 80 {
		t.Errorf("average progress = %v, want 80", stats.AverageProgress)
	}
	if stats.ByStatus[task.StatusCompleted] != 2 || stats.ByStatus[task.StatusCancelled] != 0 {
		t.Errorf("status buckets wrong: %+v", stats.ByStatus)
	}
}

func TestStatisticsCaching(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	c := newMockCache()

	svc := NewStatisticsService(store, c, time.Minute)
	ctx := context.Background()

	if _, err := svc.ForProject(ctx, "p1", ""); err != nil {
		t.Fatalf("first ForProject: %v", err)
	}
	if _, err := svc.ForProject(ctx, "p1", ""); err != nil {
		t.Fatalf("second ForProject: %v", err)
	}
	if c.hits != 1 || c.sets != 1 {
		t.Errorf("hits=%d sets=%d, want the second call served from cache", c.hits, c.sets)
	}

	// A task mutation invalidates; next read recomputes.
	svc.Invalidate(ctx, "p1", "")
	if _, err := svc.ForProject(ctx, "p1", ""); err != nil {
		t.Fatalf("ForProject after invalidate: %v", err)
	}
	if c.sets != 2 {
		t.Errorf("sets=%d, want recompute after invalidation", c.sets)
	}
}

func TestStatisticsInvalidatedOnAttachAndSubmit(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	store.metrics["m1"] = &metric.Metric{ID: "m1", Name: "Range", Code: "RNG-001", TargetValue: 500, Version: 1}
	c := newMockCache()

	statsSvc := NewStatisticsService(store, c, time.Minute)
	tasks := NewTaskService(store, nil, nil, statsSvc, nil)
	assignSvc := NewAssignmentService(store, tasks, nil)
	submitSvc := NewSubmissionService(store, tasks, config.FirstDecisionWins, nil)
	ctx := context.Background()

	stats, err := statsSvc.ForProject(ctx, "p1", "")
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}
	if stats.MetricCount != 0 || stats.ModelCount != 0 {
		t.Fatalf("baseline counts = %d/%d, want 0/0", stats.MetricCount, stats.ModelCount)
	}

	if _, err := assignSvc.AddMetric(ctx, "t1", "m1", "u-lead"); err != nil {
		t.Fatalf("AddMetric: %v", err)
	}
	stats, err = statsSvc.ForProject(ctx, "p1", "")
	if err != nil {
		t.Fatalf("ForProject after attach: %v", err)
	}
	if stats.MetricCount != 1 {
		t.Errorf("metric count = %d after attach, want 1 (cache not invalidated)", stats.MetricCount)
	}

	if _, err := submitSvc.Submit(ctx, "t1", &task.SubmitRequest{ModelID: "mdl-1", ModelVersion: "1.0"}, "u-eng"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stats, err = statsSvc.ForProject(ctx, "p1", "")
	if err != nil {
		t.Fatalf("ForProject after submit: %v", err)
	}
	if stats.ModelCount != 1 {
		t.Errorf("model count = %d after submit, want 1 (cache not invalidated)", stats.ModelCount)
	}
}

func TestStatisticsPhaseScope(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedTask("t1", "p1")
	other := store.seedTask("t2", "p1")
	other.PhaseID = "p1-phase-2"

	svc := NewStatisticsService(store, nil, time.Minute)
	stats, err := svc.ForProject(context.Background(), "p1", "p1-phase-1")
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}
	if stats.TotalTasks != 1 {
		t.Errorf("phase-scoped total = %d, want 1", stats.TotalTasks)
	}
}

func TestStatisticsRefreshAll(t *testing.T) {
	store := newMockStore()
	store.seedProject("p1")
	store.seedProject("p2")
	store.seedTask("t1", "p1")
	c := newMockCache()

	svc := NewStatisticsService(store, c, time.Minute)
	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(c.data) != 2 {
		t.Errorf("cached rollups = %d, want one per project", len(c.data))
	}
}
