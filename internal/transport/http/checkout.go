package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/domain"
)

// OrderCreator is the minimal interface needed to start a checkout.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (app.CreateOrderResult, error)
}

// HandleCheckout returns an HTTP handler for starting a purchase.
func HandleCheckout(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		res, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			ProductID: req.ProductID,
			Buyer: domain.Buyer{
				UserID: req.UserID,
				Email:  req.Email,
			},
		})
		if err != nil {
			switch err {
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			case domain.ErrProductNotFound:
				writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
			case domain.ErrProductInactive:
				writeError(w, http.StatusConflict, codeProductInactive, err.Error())
			case domain.ErrOutOfStock:
				writeError(w, http.StatusConflict, codeOutOfStock, err.Error())
			case domain.ErrLimitExceeded:
				writeError(w, http.StatusConflict, codeLimitExceeded, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, checkoutResponse{
			OrderID:   res.Order.ID,
			Status:    string(res.Order.Status),
			Amount:    res.Order.Amount.StringFixed(2),
			CreatedAt: res.Order.CreatedAt,
			PayURL:    res.Payment.URL,
			PayParams: res.Payment.Params,
		})
	}
}

type checkoutRequest struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

func (r checkoutRequest) validate() error {
	if r.ProductID == "" {
		return errors.New("product_id is required")
	}
	return nil
}

type checkoutResponse struct {
	OrderID   string            `json:"order_id"`
	Status    string            `json:"status"`
	Amount    string            `json:"amount"`
	CreatedAt time.Time         `json:"created_at"`
	PayURL    string            `json:"pay_url"`
	PayParams map[string]string `json:"pay_params"`
}
