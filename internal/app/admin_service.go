package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calliza/cardmart/internal/clock"
	"github.com/calliza/cardmart/internal/domain"
)

type AdminRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	InsertStockUnits(ctx context.Context, productID string, secrets []string) error
	ListProducts(ctx context.Context) ([]domain.ProductStock, error)
}

// AdminService provisions products and loads card secrets into stock.
type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type CreateProductInput struct {
	Name          string
	Price         decimal.Decimal
	PurchaseLimit *int
	Allocation    domain.Allocation
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.Price.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	allocation := in.Allocation
	if allocation == "" {
		allocation = domain.AllocationPerUnit
	}
	if allocation != domain.AllocationPerUnit && allocation != domain.AllocationPooled {
		return domain.Product{}, domain.ErrInvalidAllocation
	}

	product := domain.Product{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Price:         in.Price,
		Active:        true,
		PurchaseLimit: in.PurchaseLimit,
		Allocation:    allocation,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// ImportStock loads secrets as free units, skipping empty lines.
func (s *AdminService) ImportStock(ctx context.Context, productID string, secrets []string) (int, error) {
	if productID == "" {
		return 0, domain.ErrInvalidID
	}

	cleaned := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		cleaned = append(cleaned, secret)
	}
	if len(cleaned) == 0 {
		return 0, domain.ErrNoSecrets
	}

	if err := s.repo.InsertStockUnits(ctx, productID, cleaned); err != nil {
		return 0, err
	}
	return len(cleaned), nil
}

func (s *AdminService) ListProducts(ctx context.Context) ([]domain.ProductStock, error) {
	return s.repo.ListProducts(ctx)
}
