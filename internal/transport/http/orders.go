package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/domain"
)

// OrderReader is the minimal interface needed to look up order status.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (app.OrderStatusResult, error)
}

// HandleOrderStatus returns an HTTP handler for the order status page.
func HandleOrderStatus(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		res, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			switch err {
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			case domain.ErrOrderNotFound:
				writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := orderStatusResponse{
			OrderID:   res.Order.ID,
			ProductID: res.Order.ProductID,
			Status:    string(res.Order.Status),
			Amount:    res.Order.Amount.StringFixed(2),
			CreatedAt: res.Order.CreatedAt,
			PaidAt:    res.Order.PaidAt,
		}
		if res.Order.Status == domain.OrderStatusDelivered {
			resp.Secret = res.Secret
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type orderStatusResponse struct {
	OrderID   string     `json:"order_id"`
	ProductID string     `json:"product_id"`
	Status    string     `json:"status"`
	Amount    string     `json:"amount"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	Secret    string     `json:"secret,omitempty"`
}
