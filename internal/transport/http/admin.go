package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/domain"
)

// AdminAPI provisions products and stock.
type AdminAPI interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	ImportStock(ctx context.Context, productID string, secrets []string) (int, error)
	ListProducts(ctx context.Context) ([]domain.ProductStock, error)
}

// HandleCreateProduct returns an HTTP handler for adding a product.
func HandleCreateProduct(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidPrice, "invalid price")
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			Name:          req.Name,
			Price:         price,
			PurchaseLimit: req.PurchaseLimit,
			Allocation:    domain.Allocation(req.Allocation),
		})
		if err != nil {
			switch err {
			case domain.ErrProductNameRequired:
				writeError(w, http.StatusBadRequest, codeProductNameRequired, err.Error())
			case domain.ErrInvalidPrice:
				writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
			case domain.ErrInvalidAllocation:
				writeError(w, http.StatusBadRequest, codeInvalidAllocation, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, productResponse{
			ID:            product.ID,
			Name:          product.Name,
			Price:         product.Price.StringFixed(2),
			Active:        product.Active,
			PurchaseLimit: product.PurchaseLimit,
			Allocation:    string(product.Allocation),
			CreatedAt:     product.CreatedAt,
		})
	}
}

// HandleImportStock returns an HTTP handler for loading card secrets.
func HandleImportStock(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productID")

		var req importStockRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		count, err := svc.ImportStock(r.Context(), productID, req.Secrets)
		if err != nil {
			switch err {
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			case domain.ErrNoSecrets:
				writeError(w, http.StatusBadRequest, codeNoSecrets, err.Error())
			case domain.ErrProductNotFound:
				writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, importStockResponse{Imported: count})
	}
}

// HandleListProducts returns an HTTP handler listing products with counts.
func HandleListProducts(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		out := make([]productStockResponse, 0, len(products))
		for _, ps := range products {
			out = append(out, productStockResponse{
				productResponse: productResponse{
					ID:            ps.Product.ID,
					Name:          ps.Product.Name,
					Price:         ps.Product.Price.StringFixed(2),
					Active:        ps.Product.Active,
					PurchaseLimit: ps.Product.PurchaseLimit,
					Allocation:    string(ps.Product.Allocation),
					CreatedAt:     ps.Product.CreatedAt,
				},
				Free:     ps.Free,
				Consumed: ps.Consumed,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ReapRunner triggers a manual expiry sweep.
type ReapRunner interface {
	Reap(ctx context.Context, filter domain.ReapFilter) ([]string, error)
}

// HandleReap returns an HTTP handler for running the reaper on demand.
func HandleReap(svc ReapRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reapRequest
		if r.Body != nil && r.ContentLength != 0 {
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
		}

		ids, err := svc.Reap(r.Context(), domain.ReapFilter{
			ProductID: req.ProductID,
			UserID:    req.UserID,
			OrderID:   req.OrderID,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, reapResponse{Cancelled: ids})
	}
}

type createProductRequest struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	PurchaseLimit *int   `json:"purchase_limit"`
	Allocation    string `json:"allocation"`
}

type productResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	Active        bool      `json:"active"`
	PurchaseLimit *int      `json:"purchase_limit,omitempty"`
	Allocation    string    `json:"allocation"`
	CreatedAt     time.Time `json:"created_at"`
}

type productStockResponse struct {
	productResponse
	Free     int `json:"free"`
	Consumed int `json:"consumed"`
}

type importStockRequest struct {
	Secrets []string `json:"secrets"`
}

type importStockResponse struct {
	Imported int `json:"imported"`
}

type reapRequest struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	OrderID   string `json:"order_id"`
}

type reapResponse struct {
	Cancelled []string `json:"cancelled"`
}
