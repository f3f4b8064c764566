package app

import (
	"context"

	"github.com/calliza/cardmart/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	UnitSecret(ctx context.Context, unitID string) (string, error)
	PooledSecret(ctx context.Context, productID string) (string, bool, error)
}

// OrderService serves order status lookups, including the deliverable
// payload once an order is delivered.
type OrderService struct {
	repo OrderRepository
}

func NewOrderService(repo OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

type OrderStatusResult struct {
	Order  domain.Order
	Secret string
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (OrderStatusResult, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return OrderStatusResult{}, err
	}

	result := OrderStatusResult{Order: order}
	if order.Status != domain.OrderStatusDelivered {
		return result, nil
	}

	if order.StockUnitID != nil {
		secret, err := s.repo.UnitSecret(ctx, *order.StockUnitID)
		if err != nil {
			return OrderStatusResult{}, err
		}
		result.Secret = secret
		return result, nil
	}

	// Pooled deliveries carry no bound unit; the payload is the pool's
	// shared secret at read time.
	secret, ok, err := s.repo.PooledSecret(ctx, order.ProductID)
	if err != nil {
		return OrderStatusResult{}, err
	}
	if ok {
		result.Secret = secret
	}
	return result, nil
}
