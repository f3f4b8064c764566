package app

import (
	"context"
	"testing"

	"github.com/calliza/cardmart/internal/domain"
)

func TestOrderService_GetOrder(t *testing.T) {
	t.Parallel()

	unitID := "unit-1"

	t.Run("pending order exposes no secret", func(t *testing.T) {
		repo := &fakeOrderQueryRepo{
			order: domain.Order{ID: "o1", Status: domain.OrderStatusPending},
		}
		svc := NewOrderService(repo)

		res, err := svc.GetOrder(context.Background(), "o1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Secret != "" {
			t.Fatalf("expected no secret before delivery")
		}
	})

	t.Run("delivered order exposes its unit secret", func(t *testing.T) {
		repo := &fakeOrderQueryRepo{
			order: domain.Order{
				ID: "o1", Status: domain.OrderStatusDelivered, StockUnitID: &unitID,
			},
			unitSecret: "CODE-1",
		}
		svc := NewOrderService(repo)

		res, err := svc.GetOrder(context.Background(), "o1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Secret != "CODE-1" {
			t.Fatalf("expected unit secret, got %q", res.Secret)
		}
	})

	t.Run("pooled delivery reads the shared secret", func(t *testing.T) {
		repo := &fakeOrderQueryRepo{
			order: domain.Order{
				ID: "o1", ProductID: "prod-1", Status: domain.OrderStatusDelivered,
			},
			pooledSecret: "SHARED",
		}
		svc := NewOrderService(repo)

		res, err := svc.GetOrder(context.Background(), "o1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Secret != "SHARED" {
			t.Fatalf("expected pooled secret, got %q", res.Secret)
		}
	})

	t.Run("missing order surfaces not found", func(t *testing.T) {
		svc := NewOrderService(&fakeOrderQueryRepo{})

		if _, err := svc.GetOrder(context.Background(), "missing"); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

type fakeOrderQueryRepo struct {
	order        domain.Order
	unitSecret   string
	pooledSecret string
}

func (f *fakeOrderQueryRepo) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	if f.order.ID != orderID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return f.order, nil
}

func (f *fakeOrderQueryRepo) UnitSecret(_ context.Context, _ string) (string, error) {
	return f.unitSecret, nil
}

func (f *fakeOrderQueryRepo) PooledSecret(_ context.Context, _ string) (string, bool, error) {
	return f.pooledSecret, f.pooledSecret != "", nil
}
