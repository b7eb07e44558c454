package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracedeck/tracedeck/internal/domain/metric"
	"github.com/tracedeck/tracedeck/internal/port/database"
)

// MetricService manages the catalog of model quality metrics.
type MetricService struct {
	store database.Store
}

// NewMetricService creates a new MetricService.
func NewMetricService(store database.Store) *MetricService {
	return &MetricService{store: store}
}

// List returns all catalog metrics.
func (s *MetricService) List(ctx context.Context) ([]metric.Metric, error) {
	return s.store.ListMetrics(ctx)
}

// Get returns a single catalog metric.
func (s *MetricService) Get(ctx context.Context, id string) (*metric.Metric, error) {
	return s.store.GetMetric(ctx, id)
}

// Create registers a new catalog metric. Codes are unique; the store
// reports a duplicate as domain.ErrConflict.
func (s *MetricService) Create(ctx context.Context, req *metric.CreateRequest) (*metric.Metric, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &metric.Metric{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Code:               req.Code,
		Unit:               req.Unit,
		TargetValue:        req.TargetValue,
		CurrentValue:       req.CurrentValue,
		VerificationMethod: req.VerificationMethod,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if m.VerificationMethod == "" {
		m.VerificationMethod = metric.VerifySimulation
	}

	if err := s.store.CreateMetric(ctx, m); err != nil {
		return nil, fmt.Errorf("create metric: %w", err)
	}
	return m, nil
}

// Update applies a partial update to a catalog metric. Snapshots held
// by existing task assignments are not touched.
func (s *MetricService) Update(ctx context.Context, id string, req metric.UpdateRequest) (*metric.Metric, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.store.GetMetric(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if req.TargetValue != nil {
		m.TargetValue = *req.TargetValue
	}
	if req.CurrentValue != nil {
		m.CurrentValue = *req.CurrentValue
	}
	if req.VerificationMethod != nil {
		m.VerificationMethod = *req.VerificationMethod
	}
	m.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateMetric(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a catalog metric. Task assignments keep their
// snapshots and are unaffected.
func (s *MetricService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteMetric(ctx, id)
}
