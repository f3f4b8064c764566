package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/domain"
)

func TestHandleCreateProduct(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created := domain.Product{
		ID:         "prod-1",
		Name:       "Gift Card",
		Price:      decimal.RequireFromString("9.90"),
		Active:     true,
		Allocation: domain.AllocationPerUnit,
		CreatedAt:  now,
	}

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           `{"name":"Gift Card","price":"9.90","allocation":"per_unit"}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"id":"prod-1"`,
		},
		{
			name:           "invalid json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unparseable price",
			body:           `{"name":"Gift Card","price":"nine"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"invalid_price"`,
		},
		{
			name:           "missing name",
			body:           `{"name":"","price":"9.90"}`,
			serviceErr:     domain.ErrProductNameRequired,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad allocation",
			body:           `{"name":"Gift Card","price":"9.90","allocation":"bulk"}`,
			serviceErr:     domain.ErrInvalidAllocation,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "internal error",
			body:           `{"name":"Gift Card","price":"9.90"}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubAdminService{product: created, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleCreateProduct(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleImportStock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           `{"secrets":["A","B"]}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"imported":2`,
		},
		{
			name:           "no secrets",
			body:           `{"secrets":[]}`,
			serviceErr:     domain.ErrNoSecrets,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "product not found",
			body:           `{"secrets":["A"]}`,
			serviceErr:     domain.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubAdminService{imported: 2, err: tt.serviceErr}

			r := chi.NewRouter()
			r.Post("/admin/products/{productID}/stock", HandleImportStock(svc))

			req := httptest.NewRequest(http.MethodPost, "/admin/products/prod-1/stock", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
			if svc.gotProductID != "prod-1" {
				t.Fatalf("expected product id passed through, got %q", svc.gotProductID)
			}
		})
	}
}

func TestHandleReap(t *testing.T) {
	t.Parallel()

	t.Run("empty body sweeps everything", func(t *testing.T) {
		t.Parallel()
		svc := &stubReapRunner{cancelled: []string{"o1", "o2"}}
		req := httptest.NewRequest(http.MethodPost, "/admin/reap", nil)
		rec := httptest.NewRecorder()

		HandleReap(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if svc.gotFilter != (domain.ReapFilter{}) {
			t.Fatalf("expected empty filter, got %+v", svc.gotFilter)
		}
		if !strings.Contains(rec.Body.String(), `"cancelled":["o1","o2"]`) {
			t.Fatalf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("filter passthrough", func(t *testing.T) {
		t.Parallel()
		svc := &stubReapRunner{}
		body := `{"product_id":"p1","user_id":"u1"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/reap", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleReap(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		want := domain.ReapFilter{ProductID: "p1", UserID: "u1"}
		if svc.gotFilter != want {
			t.Fatalf("expected filter %+v, got %+v", want, svc.gotFilter)
		}
		if !strings.Contains(rec.Body.String(), `"cancelled":[]`) {
			t.Fatalf("expected empty cancelled list, got %q", rec.Body.String())
		}
	})
}

type stubAdminService struct {
	product  domain.Product
	imported int
	list     []domain.ProductStock
	err      error

	gotProductID string
}

func (s *stubAdminService) CreateProduct(_ context.Context, _ app.CreateProductInput) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	return s.product, nil
}

func (s *stubAdminService) ImportStock(_ context.Context, productID string, _ []string) (int, error) {
	s.gotProductID = productID
	if s.err != nil {
		return 0, s.err
	}
	return s.imported, nil
}

func (s *stubAdminService) ListProducts(_ context.Context) ([]domain.ProductStock, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

type stubReapRunner struct {
	cancelled []string
	err       error

	gotFilter domain.ReapFilter
}

func (s *stubReapRunner) Reap(_ context.Context, filter domain.ReapFilter) ([]string, error) {
	s.gotFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.cancelled, nil
}
