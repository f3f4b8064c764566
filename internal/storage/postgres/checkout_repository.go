package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calliza/cardmart/internal/domain"
)

// CheckoutRepository backs order creation. The claim statement is the
// allocator's single source of truth: one row is selected under
// FOR UPDATE SKIP LOCKED and updated in the same statement, so two
// concurrent callers can never both claim the same unit while claims on
// different rows proceed in parallel.
type CheckoutRepository struct {
	querier
}

func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{querier{pool: pool}}
}

func (r *CheckoutRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return getProduct(ctx, r.querier, productID)
}

// CountSettledOrders counts the buyer's paid and delivered orders for a
// product. A buyer matches on user id or email, whichever is present, so a
// logged-in buyer cannot dodge the purchase limit by omitting one of them.
func (r *CheckoutRepository) CountSettledOrders(ctx context.Context, productID string, buyer domain.Buyer) (int, error) {
	const query = `
SELECT COUNT(*)
FROM orders
WHERE product_id = $1
  AND status IN ('paid', 'delivered')
  AND (($2::text IS NOT NULL AND user_id = $2) OR ($3::text IS NOT NULL AND email = $3))`

	var userID, email *string
	if buyer.UserID != "" {
		userID = &buyer.UserID
	}
	if buyer.Email != "" {
		email = &buyer.Email
	}

	var count int
	if err := r.queryRow(ctx, query, productID, userID, email).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count settled orders: %w", err)
	}
	return count, nil
}

// ClaimUnit atomically marks one free-or-expired-hold unit as held by the
// order. Returns ErrOutOfStock when no eligible unit exists.
func (r *CheckoutRepository) ClaimUnit(ctx context.Context, productID, orderID string, now, holdCutoff time.Time) (domain.StockUnit, error) {
	const stmt = `
UPDATE stock_units
SET held_by = $2, held_at = $3
WHERE id = (
	SELECT id
	FROM stock_units
	WHERE product_id = $1
	  AND consumed_at IS NULL
	  AND (held_by IS NULL OR held_at <= $4)
	ORDER BY created_at, id
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, product_id, secret, held_by, held_at, consumed_at, created_at`

	var u domain.StockUnit
	err := r.queryRow(ctx, stmt, productID, orderID, now, holdCutoff).
		Scan(&u.ID, &u.ProductID, &u.Secret, &u.HeldBy, &u.HeldAt, &u.ConsumedAt, &u.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.StockUnit{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.StockUnit{}, domain.ErrOutOfStock
		}
		return domain.StockUnit{}, fmt.Errorf("claim unit: %w", err)
	}
	return u, nil
}

// PooledAvailable reports whether a pooled product has at least one free unit.
func (r *CheckoutRepository) PooledAvailable(ctx context.Context, productID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM stock_units WHERE product_id = $1 AND consumed_at IS NULL)`

	var ok bool
	if err := r.queryRow(ctx, query, productID).Scan(&ok); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("pooled available: %w", err)
	}
	return ok, nil
}

func (r *CheckoutRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, product_id, amount, user_id, email, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.ProductID,
		order.Amount,
		order.UserID,
		order.Email,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}
