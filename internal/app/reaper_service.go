package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calliza/cardmart/internal/clock"
	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/metrics"
)

type ReaperRepository interface {
	CancelStaleOrders(ctx context.Context, cutoff time.Time, filter domain.ReapFilter) ([]string, error)
	ReleaseUnit(ctx context.Context, orderID string) error
}

// ReaperService cancels pending orders whose age exceeds the pending TTL and
// returns their held units to the free pool. Running it is optional for
// correctness (expired holds are already invisible to the allocator), only
// for promptness.
type ReaperService struct {
	repo       ReaperRepository
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics
	pendingTTL time.Duration
}

const defaultPendingTTL = 5 * time.Minute

func NewReaperService(repo ReaperRepository, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics, opts ...ReaperServiceOption) *ReaperService {
	svc := &ReaperService{
		repo:       repo,
		clock:      clk,
		logger:     logger,
		metrics:    m,
		pendingTTL: defaultPendingTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReaperServiceOption func(*ReaperService)

// WithPendingTTL overrides how long an order may stay pending before it is
// reclaimed.
func WithPendingTTL(d time.Duration) ReaperServiceOption {
	return func(s *ReaperService) {
		if d > 0 {
			s.pendingTTL = d
		}
	}
}

// Reap cancels stale pending orders matching the filter, then releases each
// order's unit. The two steps are deliberately separate statements: if a
// settlement consumes a unit between them, the conditional release leaves it
// consumed.
func (s *ReaperService) Reap(ctx context.Context, filter domain.ReapFilter) ([]string, error) {
	cutoff := s.clock.Now().Add(-s.pendingTTL)

	ids, err := s.repo.CancelStaleOrders(ctx, cutoff, filter)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := s.repo.ReleaseUnit(ctx, id); err != nil {
			// The hold is already expired, so the unit stays allocatable;
			// losing the release only delays the physical cleanup.
			s.logger.Warn("release unit failed", zap.String("order_id", id), zap.Error(err))
		}
	}

	if len(ids) > 0 {
		s.metrics.ReapedOrders.Add(float64(len(ids)))
		s.logger.Info("reaped stale orders", zap.Int("count", len(ids)))
	}
	return ids, nil
}
