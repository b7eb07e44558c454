package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tracedeck/tracedeck/internal/domain/task"
	"github.com/tracedeck/tracedeck/internal/port/cache"
	"github.com/tracedeck/tracedeck/internal/port/database"
)

// refreshConcurrency bounds parallel RefreshAll aggregation fan-out.
const refreshConcurrency = 4

// StatisticsService computes dashboard task rollups, memoized in the
// cache. Entries are invalidated on every task mutation and carry a
// short TTL as a backstop, so a stale read can only survive one TTL
// window even if an invalidation is missed.
type StatisticsService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(store database.Store, c cache.Cache, ttl time.Duration) *StatisticsService {
	return &StatisticsService{store: store, cache: c, ttl: ttl}
}

func statsKey(projectID, phaseID string) string {
	if phaseID == "" {
		return "stats:" + projectID
	}
	return "stats:" + projectID + ":" + phaseID
}

// ForProject returns the task rollup for a project, optionally scoped to
// one phase. Cache failures fall through to a fresh aggregation.
func (s *StatisticsService) ForProject(ctx context.Context, projectID, phaseID string) (task.Statistics, error) {
	key := statsKey(projectID, phaseID)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var stats task.Statistics
			if err := json.Unmarshal(data, &stats); err == nil {
				return stats, nil
			}
		}
	}

	tasks, err := s.store.ListTasks(ctx, task.Query{ProjectID: projectID, PhaseID: phaseID})
	if err != nil {
		return task.Statistics{}, err
	}
	stats := task.Aggregate(tasks)

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("cache statistics", "key", key, "error", err)
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached rollups touched by a task mutation: the
// project-level entry and, when known, the phase entry.
func (s *StatisticsService) Invalidate(ctx context.Context, projectID, phaseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsKey(projectID, "")); err != nil {
		slog.Warn("invalidate statistics", "project_id", projectID, "error", err)
	}
	if phaseID != "" {
		if err := s.cache.Delete(ctx, statsKey(projectID, phaseID)); err != nil {
			slog.Warn("invalidate statistics", "project_id", projectID, "phase_id", phaseID, "error", err)
		}
	}
}

// RefreshAll recomputes and re-caches the project-level rollup for every
// project, with bounded concurrency. Used by the startup warm-up.
func (s *StatisticsService) RefreshAll(ctx context.Context) error {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, p := range projects {
		g.Go(func() error {
			s.Invalidate(ctx, p.ID, "")
			_, err := s.ForProject(ctx, p.ID, "")
			return err
		})
	}
	return g.Wait()
}
