package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calliza/cardmart/internal/domain"
)

// ReaperRepository backs stale-order reclamation. Cancelling orders and
// releasing their units are separate statements on purpose; each is atomic
// on its own and the release is conditioned on the unit being unconsumed,
// so a settlement that raced the reaper keeps its consumed unit.
type ReaperRepository struct {
	querier
}

func NewReaperRepository(pool *pgxpool.Pool) *ReaperRepository {
	return &ReaperRepository{querier{pool: pool}}
}

// CancelStaleOrders cancels pending orders created before cutoff and returns
// their ids.
func (r *ReaperRepository) CancelStaleOrders(ctx context.Context, cutoff time.Time, filter domain.ReapFilter) ([]string, error) {
	var b strings.Builder
	b.WriteString(`UPDATE orders SET status = 'cancelled' WHERE status = 'pending' AND created_at <= $1`)
	args := []any{cutoff}

	appendFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		b.WriteString(" AND " + column + " = $" + strconv.Itoa(len(args)))
	}
	appendFilter("product_id", filter.ProductID)
	appendFilter("user_id", filter.UserID)
	appendFilter("id", filter.OrderID)
	b.WriteString(" RETURNING id")

	rows, err := r.query(ctx, b.String(), args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cancel stale orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cancelled order: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, nil
		}
		return nil, fmt.Errorf("iterate cancelled orders: %w", rows.Err())
	}
	return ids, nil
}

// ReleaseUnit clears the hold a cancelled order left behind. The unconsumed
// guard is what keeps a settlement that consumed the unit between the cancel
// and this release from being undone.
func (r *ReaperRepository) ReleaseUnit(ctx context.Context, orderID string) error {
	const stmt = `
UPDATE stock_units
SET held_by = NULL, held_at = NULL
WHERE held_by = $1 AND consumed_at IS NULL`

	if _, err := r.exec(ctx, stmt, orderID); err != nil {
		return fmt.Errorf("release unit: %w", err)
	}
	return nil
}
