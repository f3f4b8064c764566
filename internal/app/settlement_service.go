package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/calliza/cardmart/internal/clock"
	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/gateway"
	"github.com/calliza/cardmart/internal/metrics"
	"github.com/calliza/cardmart/internal/notify"
)

type SettlementRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ConsumeHeldUnit(ctx context.Context, orderID string, now time.Time) (*domain.StockUnit, error)
	ClaimAndConsumeUnit(ctx context.Context, productID string, now, holdCutoff time.Time) (*domain.StockUnit, error)
	PooledSecret(ctx context.Context, productID string) (string, bool, error)
	MarkDelivered(ctx context.Context, orderID string, unitID *string, gatewayTxn string, now time.Time) error
	MarkPaid(ctx context.Context, orderID, gatewayTxn string, now time.Time) error
}

// SettleOutcome classifies an acknowledged notification.
type SettleOutcome string

const (
	// OutcomeDelivered means the order was settled and a payload assigned.
	OutcomeDelivered SettleOutcome = "delivered"
	// OutcomePaidNoStock means the payment was recorded but no unit was
	// claimable; the order waits for back-office fulfillment.
	OutcomePaidNoStock SettleOutcome = "paid_no_stock"
	// OutcomeAlreadySettled means a replayed notification hit an order that
	// was settled before; acknowledged as a no-op.
	OutcomeAlreadySettled SettleOutcome = "already_settled"
	// OutcomeIgnored means the trade status was not a success; acknowledged
	// without side effects.
	OutcomeIgnored SettleOutcome = "ignored"
)

type SettleResult struct {
	Outcome SettleOutcome
	Order   domain.Order
}

// Gateways report amounts as formatted floats; tolerate sub-cent rounding
// but nothing a tampered notification could hide behind.
var amountEpsilon = decimal.NewFromFloat(0.01)

// SettlementService consumes payment-gateway notifications. Notifications
// arrive at least once and possibly out of order; every path through Settle
// is safe under replay and concurrent delivery.
type SettlementService struct {
	repo     SettlementRepository
	secret   string
	notifier notify.Notifier
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *metrics.Metrics
	holdTTL  time.Duration
}

func NewSettlementService(repo SettlementRepository, secret string, notifier notify.Notifier, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics, opts ...SettlementServiceOption) *SettlementService {
	svc := &SettlementService{
		repo:     repo,
		secret:   secret,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		metrics:  m,
		holdTTL:  defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type SettlementServiceOption func(*SettlementService)

// WithSettlementHoldTTL keeps the fallback claim's expiry cutoff in line with
// the allocator's.
func WithSettlementHoldTTL(d time.Duration) SettlementServiceOption {
	return func(s *SettlementService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// Settle runs the notification through its gates in order; failing a gate
// rejects without mutating state.
func (s *SettlementService) Settle(ctx context.Context, n gateway.Notification) (SettleResult, error) {
	if !n.Verified(s.secret) {
		s.metrics.Settlements.WithLabelValues("bad_signature").Inc()
		s.logger.Warn("rejected notification with bad signature", zap.String("order_id", n.OrderID))
		return SettleResult{}, domain.ErrBadSignature
	}

	if n.TradeStatus != gateway.TradeStatusSuccess {
		s.metrics.Settlements.WithLabelValues(string(OutcomeIgnored)).Inc()
		return SettleResult{Outcome: OutcomeIgnored}, nil
	}

	amount, err := decimal.NewFromString(n.Amount)
	if err != nil {
		s.metrics.Settlements.WithLabelValues("amount_mismatch").Inc()
		return SettleResult{}, domain.ErrAmountMismatch
	}

	now := s.clock.Now()
	var result SettleResult

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, n.OrderID)
		if err != nil {
			return err
		}

		if order.Amount.Sub(amount).Abs().GreaterThan(amountEpsilon) {
			s.logger.Warn("rejected notification with mismatched amount",
				zap.String("order_id", order.ID),
				zap.String("expected", order.Amount.String()),
				zap.String("got", amount.String()),
			)
			return domain.ErrAmountMismatch
		}

		if order.Settled() {
			result = SettleResult{Outcome: OutcomeAlreadySettled, Order: order}
			return nil
		}

		product, err := s.repo.GetProduct(txCtx, order.ProductID)
		if err != nil {
			return err
		}

		if product.Allocation == domain.AllocationPooled {
			return s.finalizePooled(txCtx, &result, order, n.GatewayTxn, now)
		}
		return s.finalizePerUnit(txCtx, &result, order, n.GatewayTxn, now)
	})
	if err != nil {
		return SettleResult{}, err
	}

	s.metrics.Settlements.WithLabelValues(string(result.Outcome)).Inc()

	if result.Outcome == OutcomeDelivered {
		if err := s.notifier.OrderDelivered(ctx, result.Order); err != nil {
			s.logger.Warn("delivery notification failed", zap.String("order_id", result.Order.ID), zap.Error(err))
		}
	}
	return result, nil
}

// finalizePerUnit consumes the unit this order holds; payment success
// overrides a timed-out hold. If the unit was reclaimed and reassigned in
// the meantime, any still-free unit of the product is claimed instead. With
// nothing claimable the order is parked as paid so the buyer's money is
// never discarded.
func (s *SettlementService) finalizePerUnit(ctx context.Context, result *SettleResult, order domain.Order, gatewayTxn string, now time.Time) error {
	unit, err := s.repo.ConsumeHeldUnit(ctx, order.ID, now)
	if err != nil {
		return err
	}
	if unit == nil {
		unit, err = s.repo.ClaimAndConsumeUnit(ctx, order.ProductID, now, now.Add(-s.holdTTL))
		if err != nil {
			return err
		}
	}

	if unit == nil {
		if err := s.repo.MarkPaid(ctx, order.ID, gatewayTxn, now); err != nil {
			return err
		}
		s.logger.Warn("paid order left undelivered, no stock claimable",
			zap.String("order_id", order.ID),
			zap.String("product_id", order.ProductID),
		)
		order.Status = domain.OrderStatusPaid
		order.GatewayTxn = &gatewayTxn
		order.PaidAt = &now
		*result = SettleResult{Outcome: OutcomePaidNoStock, Order: order}
		return nil
	}

	if err := s.repo.MarkDelivered(ctx, order.ID, &unit.ID, gatewayTxn, now); err != nil {
		return err
	}
	order.Status = domain.OrderStatusDelivered
	order.StockUnitID = &unit.ID
	order.GatewayTxn = &gatewayTxn
	order.PaidAt = &now
	order.DeliveredAt = &now
	*result = SettleResult{Outcome: OutcomeDelivered, Order: order}
	return nil
}

// finalizePooled delivers the shared payload without consuming a unit.
func (s *SettlementService) finalizePooled(ctx context.Context, result *SettleResult, order domain.Order, gatewayTxn string, now time.Time) error {
	_, available, err := s.repo.PooledSecret(ctx, order.ProductID)
	if err != nil {
		return err
	}
	if !available {
		if err := s.repo.MarkPaid(ctx, order.ID, gatewayTxn, now); err != nil {
			return err
		}
		order.Status = domain.OrderStatusPaid
		order.GatewayTxn = &gatewayTxn
		order.PaidAt = &now
		*result = SettleResult{Outcome: OutcomePaidNoStock, Order: order}
		return nil
	}

	if err := s.repo.MarkDelivered(ctx, order.ID, nil, gatewayTxn, now); err != nil {
		return err
	}
	order.Status = domain.OrderStatusDelivered
	order.GatewayTxn = &gatewayTxn
	order.PaidAt = &now
	order.DeliveredAt = &now
	*result = SettleResult{Outcome: OutcomeDelivered, Order: order}
	return nil
}
