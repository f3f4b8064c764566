package domain

// ReapFilter optionally narrows an expiry sweep. Empty fields match all.
type ReapFilter struct {
	ProductID string
	UserID    string
	OrderID   string
}
