package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Buyer identifies the purchaser; either field may be empty for guests.
type Buyer struct {
	UserID string
	Email  string
}

// Order is the durable record of a purchase. The amount is frozen from the
// product price at creation and re-checked at settlement.
type Order struct {
	ID          string
	ProductID   string
	Amount      decimal.Decimal
	UserID      *string
	Email       *string
	Status      OrderStatus
	StockUnitID *string
	GatewayTxn  *string
	CreatedAt   time.Time
	PaidAt      *time.Time
	DeliveredAt *time.Time
}

// Settled reports whether the order already went through settlement.
func (o Order) Settled() bool {
	switch o.Status {
	case OrderStatusPaid, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}
