package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewOrderRepository(pool)

	price := decimal.RequireFromString("10.00")

	t.Run("GetOrder returns the row and maps missing ids", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		now := time.Now().UTC().Truncate(time.Microsecond)

		productID := testutil.InsertProduct(t, ctx, pool, "Gift Card", price, nil, domain.AllocationPerUnit)
		userID := "u1"
		orderID := uuid.NewString()
		testutil.InsertOrder(t, ctx, pool, domain.Order{
			ID: orderID, ProductID: productID, Amount: price,
			UserID: &userID, Status: domain.OrderStatusPending, CreatedAt: now,
		})

		o, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if o.ID != orderID || o.ProductID != productID || !o.Amount.Equal(price) ||
			o.UserID == nil || *o.UserID != userID || o.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected order: %+v", o)
		}

		if _, err := repo.GetOrder(ctx, uuid.NewString()); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		if _, err := repo.GetOrder(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("UnitSecret reads the bound unit's payload", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Gift Card", price, nil, domain.AllocationPerUnit)
		unitID := testutil.InsertStockUnit(t, ctx, pool, productID, "CARD-0001")

		secret, err := repo.UnitSecret(ctx, unitID)
		if err != nil {
			t.Fatalf("unit secret: %v", err)
		}
		if secret != "CARD-0001" {
			t.Fatalf("expected CARD-0001, got %q", secret)
		}
	})

	t.Run("PooledSecret returns the shared payload without consuming", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Shared Key", price, nil, domain.AllocationPooled)

		if _, ok, err := repo.PooledSecret(ctx, productID); err != nil || ok {
			t.Fatalf("expected empty pool, got ok=%v err=%v", ok, err)
		}

		testutil.InsertStockUnit(t, ctx, pool, productID, "SHARED")
		secret, ok, err := repo.PooledSecret(ctx, productID)
		if err != nil || !ok || secret != "SHARED" {
			t.Fatalf("expected SHARED, got secret=%q ok=%v err=%v", secret, ok, err)
		}
	})
}
