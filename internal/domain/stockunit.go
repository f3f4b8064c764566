package domain

import "time"

// StockUnit is one single-use inventory item carrying a secret payload.
// It is free, held by a pending order, or consumed; consumed is terminal.
type StockUnit struct {
	ID         string
	ProductID  string
	Secret     string
	HeldBy     *string
	HeldAt     *time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Consumed reports whether the unit was permanently assigned to an order.
func (u StockUnit) Consumed() bool {
	return u.ConsumedAt != nil
}

// HeldLive reports whether the unit carries a hold that has not expired.
func (u StockUnit) HeldLive(now time.Time, ttl time.Duration) bool {
	if u.Consumed() || u.HeldBy == nil || u.HeldAt == nil {
		return false
	}
	return now.Sub(*u.HeldAt) <= ttl
}
