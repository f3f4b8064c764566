// Package metrics exposes prometheus counters for the order engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	OrdersCreated      prometheus.Counter
	CheckoutRejections *prometheus.CounterVec
	Settlements        *prometheus.CounterVec
	ReapedOrders       prometheus.Counter
}

// New registers the engine's counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardmart_orders_created_total",
			Help: "Pending orders created by checkout.",
		}),
		CheckoutRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardmart_checkout_rejections_total",
			Help: "Checkout attempts rejected, by reason.",
		}, []string{"reason"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardmart_settlements_total",
			Help: "Settlement notifications processed, by outcome.",
		}, []string{"outcome"}),
		ReapedOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardmart_reaped_orders_total",
			Help: "Stale pending orders cancelled by the reaper.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.CheckoutRejections, m.Settlements, m.ReapedOrders)
	return m
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
