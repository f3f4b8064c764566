package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation selects how stock is bound to orders for a product.
type Allocation string

const (
	// AllocationPerUnit binds exactly one stock unit to each order.
	AllocationPerUnit Allocation = "per_unit"
	// AllocationPooled treats the product as in stock while at least one
	// unit is free and delivers the same payload to every buyer.
	AllocationPooled Allocation = "pooled"
)

// Product is catalog data, read-only to this engine.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	Active        bool
	PurchaseLimit *int
	Allocation    Allocation
	CreatedAt     time.Time
}

// ProductStock is a product together with its live unit counts.
type ProductStock struct {
	Product  Product
	Free     int
	Consumed int
}
