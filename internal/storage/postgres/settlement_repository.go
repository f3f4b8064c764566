package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calliza/cardmart/internal/domain"
)

const orderColumns = `id, product_id, amount, user_id, email, status, stock_unit_id, gateway_txn, created_at, paid_at, delivered_at`

// SettlementRepository backs the notification handler's atomic finalize.
type SettlementRepository struct {
	querier
}

func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{querier{pool: pool}}
}

func (r *SettlementRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetOrderForUpdate locks the order row so concurrent notifications for the
// same order serialize on it.
func (r *SettlementRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

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

func (r *SettlementRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return getProduct(ctx, r.querier, productID)
}

// ConsumeHeldUnit finalizes the unit the order holds, regardless of hold
// expiry: payment success overrides a timed-out hold. Returns nil when the
// unit was reclaimed and reassigned before payment completed.
func (r *SettlementRepository) ConsumeHeldUnit(ctx context.Context, orderID string, now time.Time) (*domain.StockUnit, error) {
	const stmt = `
UPDATE stock_units
SET consumed_at = $2, held_by = NULL, held_at = NULL
WHERE held_by = $1 AND consumed_at IS NULL
RETURNING id, product_id, secret`

	var u domain.StockUnit
	err := r.queryRow(ctx, stmt, orderID, now).Scan(&u.ID, &u.ProductID, &u.Secret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("consume held unit: %w", err)
	}
	u.ConsumedAt = &now
	return &u, nil
}

// ClaimAndConsumeUnit is the fallback when the original hold was lost: claim
// any still-free unit of the product with the same per-row primitive the
// allocator uses, consuming it in the same statement. Returns nil when the
// product is sold out.
func (r *SettlementRepository) ClaimAndConsumeUnit(ctx context.Context, productID string, now, holdCutoff time.Time) (*domain.StockUnit, error) {
	const stmt = `
UPDATE stock_units
SET consumed_at = $3, held_by = NULL, held_at = NULL
WHERE id = (
	SELECT id
	FROM stock_units
	WHERE product_id = $1
	  AND consumed_at IS NULL
	  AND (held_by IS NULL OR held_at <= $2)
	ORDER BY created_at, id
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, product_id, secret`

	var u domain.StockUnit
	err := r.queryRow(ctx, stmt, productID, holdCutoff, now).Scan(&u.ID, &u.ProductID, &u.Secret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("claim and consume unit: %w", err)
	}
	u.ConsumedAt = &now
	return &u, nil
}

// PooledSecret returns the shared payload for a pooled product without
// consuming anything.
func (r *SettlementRepository) PooledSecret(ctx context.Context, productID string) (string, bool, error) {
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

// MarkDelivered finalizes the order as paid and delivered in one update.
// unitID is nil for pooled products.
func (r *SettlementRepository) MarkDelivered(ctx context.Context, orderID string, unitID *string, gatewayTxn string, now time.Time) error {
	const stmt = `
UPDATE orders
SET status = 'delivered', stock_unit_id = $2, gateway_txn = $3, paid_at = $4, delivered_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, unitID, gatewayTxn, now)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MarkPaid records a successful payment that could not be fulfilled because
// no unit was claimable; the order waits for back-office fulfillment.
func (r *SettlementRepository) MarkPaid(ctx context.Context, orderID, gatewayTxn string, now time.Time) error {
	const stmt = `
UPDATE orders
SET status = 'paid', gateway_txn = $2, paid_at = $3
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, gatewayTxn, now)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
