// Package notify dispatches delivery events to external channels. Dispatch
// is fire-and-forget: a failed notification never affects settlement.
package notify

import (
	"context"

	"github.com/calliza/cardmart/internal/domain"
)

// Notifier is told about each delivered order.
type Notifier interface {
	OrderDelivered(ctx context.Context, order domain.Order) error
}

// Nop discards notifications; the default when no broker is configured.
type Nop struct{}

func (Nop) OrderDelivered(context.Context, domain.Order) error {
	return nil
}
