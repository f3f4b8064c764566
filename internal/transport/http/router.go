package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles what the router needs.
type Services struct {
	Checkout OrderCreator
	Settle   Settler
	Orders   OrderReader
	Admin    AdminAPI
	Reaper   ReapRunner
}

// NewRouter wires all routes with logging and CORS applied outermost.
func NewRouter(svcs Services, gatherer prometheus.Gatherer, corsOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Post("/checkout", HandleCheckout(svcs.Checkout))
	r.Get("/notify", HandleNotify(svcs.Settle))
	r.Post("/notify", HandleNotify(svcs.Settle))
	r.Get("/orders/{orderID}", HandleOrderStatus(svcs.Orders))

	r.Route("/admin", func(r chi.Router) {
		r.Post("/products", HandleCreateProduct(svcs.Admin))
		r.Get("/products", HandleListProducts(svcs.Admin))
		r.Post("/products/{productID}/stock", HandleImportStock(svcs.Admin))
		r.Post("/reap", HandleReap(svcs.Reaper))
	})

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return RequestLogger(CORS(corsOrigins, r), logger)
}
