package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calliza/cardmart/internal/domain"
)

// OrderRepository serves read-only order lookups for the status endpoint.
type OrderRepository struct {
	querier
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{querier{pool: pool}}
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o domain.Order
	err := r.queryRow(ctx, query, orderID).Scan(
		&o.ID, &o.ProductID, &o.Amount, &o.UserID, &o.Email, &o.Status,
		&o.StockUnitID, &o.GatewayTxn, &o.CreatedAt, &o.PaidAt, &o.DeliveredAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) UnitSecret(ctx context.Context, unitID string) (string, error) {
	const query = `SELECT secret FROM stock_units WHERE id = $1`

	var secret string
	if err := r.queryRow(ctx, query, unitID).Scan(&secret); err != nil {
		return "", fmt.Errorf("unit secret: %w", err)
	}
	return secret, nil
}

// PooledSecret mirrors the settlement-side lookup for pooled deliveries.
func (r *OrderRepository) PooledSecret(ctx context.Context, productID string) (string, bool, error) {
	const query = `
SELECT secret
FROM stock_units
WHERE product_id = $1 AND consumed_at IS NULL
ORDER BY created_at, id
LIMIT 1`

	var secret string
	err := r.queryRow(ctx, query, productID).Scan(&secret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("pooled secret: %w", err)
	}
	return secret, true, nil
}
