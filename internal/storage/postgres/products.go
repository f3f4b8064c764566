package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calliza/cardmart/internal/domain"
)

const productColumns = `id, name, price, active, purchase_limit, allocation, created_at`

func getProduct(ctx context.Context, q querier, productID string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	err := q.queryRow(ctx, query, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.PurchaseLimit, &p.Allocation, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}
