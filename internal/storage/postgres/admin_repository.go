package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calliza/cardmart/internal/domain"
)

type AdminRepository struct {
	querier
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{querier{pool: pool}}
}

func (r *AdminRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, price, active, purchase_limit, allocation, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		product.ID,
		product.Name,
		product.Price,
		product.Active,
		product.PurchaseLimit,
		product.Allocation,
		product.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// InsertStockUnits loads a batch of secrets as free units for a product.
func (r *AdminRepository) InsertStockUnits(ctx context.Context, productID string, secrets []string) error {
	const stmt = `INSERT INTO stock_units (product_id, secret) VALUES ($1, $2)`

	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		for _, secret := range secrets {
			if _, err := r.exec(txCtx, stmt, productID, secret); err != nil {
				if isInvalidUUID(err) {
					return domain.ErrInvalidID
				}
				if isForeignKeyViolation(err) {
					return domain.ErrProductNotFound
				}
				return fmt.Errorf("insert stock unit: %w", err)
			}
		}
		return nil
	})
}

func (r *AdminRepository) ListProducts(ctx context.Context) ([]domain.ProductStock, error) {
	query := `
SELECT ` + productColumns + `,
	(SELECT COUNT(*) FROM stock_units u WHERE u.product_id = products.id AND u.consumed_at IS NULL),
	(SELECT COUNT(*) FROM stock_units u WHERE u.product_id = products.id AND u.consumed_at IS NOT NULL)
FROM products
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductStock
	for rows.Next() {
		var ps domain.ProductStock
		p := &ps.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Active, &p.PurchaseLimit, &p.Allocation, &p.CreatedAt, &ps.Free, &ps.Consumed); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, ps)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return out, nil
}
