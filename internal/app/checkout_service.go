package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calliza/cardmart/internal/clock"
	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/gateway"
	"github.com/calliza/cardmart/internal/metrics"
)

type CheckoutRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CountSettledOrders(ctx context.Context, productID string, buyer domain.Buyer) (int, error)
	ClaimUnit(ctx context.Context, productID, orderID string, now, holdCutoff time.Time) (domain.StockUnit, error)
	PooledAvailable(ctx context.Context, productID string) (bool, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

// Reaper is the expiry sweeper checkout invokes opportunistically.
type Reaper interface {
	Reap(ctx context.Context, filter domain.ReapFilter) ([]string, error)
}

// CheckoutService turns a purchase request into a pending order bound to a
// claimed stock unit and a signed payment redirect.
type CheckoutService struct {
	repo    CheckoutRepository
	reaper  Reaper
	gateway gateway.Config
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
	holdTTL time.Duration
}

const defaultHoldTTL = time.Minute

func NewCheckoutService(repo CheckoutRepository, reaper Reaper, gw gateway.Config, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics, opts ...CheckoutServiceOption) *CheckoutService {
	svc := &CheckoutService{
		repo:    repo,
		reaper:  reaper,
		gateway: gw,
		clock:   clk,
		logger:  logger,
		metrics: m,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CheckoutServiceOption func(*CheckoutService)

// WithHoldTTL overrides how long a claimed unit stays reserved for an unpaid
// order.
func WithHoldTTL(d time.Duration) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateOrderInput struct {
	ProductID string
	Buyer     domain.Buyer
}

type CreateOrderResult struct {
	Order   domain.Order
	Payment gateway.PaymentRequest
}

func (s *CheckoutService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	product, err := s.repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if !product.Active {
		return CreateOrderResult{}, domain.ErrProductInactive
	}

	// Best-effort sweep so stale holds don't block legitimate buyers.
	if _, err := s.reaper.Reap(ctx, domain.ReapFilter{ProductID: in.ProductID}); err != nil {
		s.logger.Warn("pre-checkout reap failed", zap.String("product_id", in.ProductID), zap.Error(err))
	}

	if product.PurchaseLimit != nil && (in.Buyer.UserID != "" || in.Buyer.Email != "") {
		count, err := s.repo.CountSettledOrders(ctx, in.ProductID, in.Buyer)
		if err != nil {
			return CreateOrderResult{}, err
		}
		if count >= *product.PurchaseLimit {
			s.metrics.CheckoutRejections.WithLabelValues("limit_exceeded").Inc()
			return CreateOrderResult{}, domain.ErrLimitExceeded
		}
	}

	now := s.clock.Now()
	orderID := uuid.NewString()

	switch product.Allocation {
	case domain.AllocationPooled:
		// Pooled products share one payload; the claim is logical only.
		available, err := s.repo.PooledAvailable(ctx, in.ProductID)
		if err != nil {
			return CreateOrderResult{}, err
		}
		if !available {
			s.metrics.CheckoutRejections.WithLabelValues("out_of_stock").Inc()
			return CreateOrderResult{}, domain.ErrOutOfStock
		}
	default:
		if _, err := s.repo.ClaimUnit(ctx, in.ProductID, orderID, now, now.Add(-s.holdTTL)); err != nil {
			if err == domain.ErrOutOfStock {
				s.metrics.CheckoutRejections.WithLabelValues("out_of_stock").Inc()
			}
			return CreateOrderResult{}, err
		}
	}

	order := domain.Order{
		ID:        orderID,
		ProductID: product.ID,
		Amount:    product.Price,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
	}
	if in.Buyer.UserID != "" {
		order.UserID = &in.Buyer.UserID
	}
	if in.Buyer.Email != "" {
		order.Email = &in.Buyer.Email
	}

	// The claim above is the single source of truth for stock; the insert
	// trusts the committed hold and does not re-validate.
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return CreateOrderResult{}, err
	}

	s.metrics.OrdersCreated.Inc()
	return CreateOrderResult{
		Order:   order,
		Payment: s.gateway.NewPaymentRequest(order.ID, product.Name, order.Amount),
	}, nil
}
