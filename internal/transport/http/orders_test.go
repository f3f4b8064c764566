package http

import (
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

func TestHandleOrderStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		result         app.OrderStatusResult
		serviceErr     error
		expectedStatus int
		expectedSubstr string
		absentSubstr   string
	}{
		{
			name: "pending order hides secret",
			result: app.OrderStatusResult{
				Order: domain.Order{
					ID:        "order-123",
					ProductID: "prod-1",
					Amount:    decimal.RequireFromString("9.90"),
					Status:    domain.OrderStatusPending,
					CreatedAt: now,
				},
			},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"status":"pending"`,
			absentSubstr:   `"secret"`,
		},
		{
			name: "delivered order exposes secret",
			result: app.OrderStatusResult{
				Order: domain.Order{
					ID:        "order-123",
					ProductID: "prod-1",
					Amount:    decimal.RequireFromString("9.90"),
					Status:    domain.OrderStatusDelivered,
					CreatedAt: now,
				},
				Secret: "CARD-0001",
			},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"secret":"CARD-0001"`,
		},
		{
			name:           "invalid id",
			serviceErr:     domain.ErrInvalidID,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "order not found",
			serviceErr:     domain.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "internal error",
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubOrderService{
				result: tt.result,
				err:    tt.serviceErr,
			}

			r := chi.NewRouter()
			r.Get("/orders/{orderID}", HandleOrderStatus(svc))

			req := httptest.NewRequest(http.MethodGet, "/orders/order-123", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if svc.gotOrderID != "order-123" {
				t.Fatalf("expected order id passed through, got %q", svc.gotOrderID)
			}
			body := rec.Body.String()
			if tt.expectedSubstr != "" && !strings.Contains(body, tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, body)
			}
			if tt.absentSubstr != "" && strings.Contains(body, tt.absentSubstr) {
				t.Fatalf("expected response without %q, got %q", tt.absentSubstr, body)
			}
		})
	}
}

type stubOrderService struct {
	result app.OrderStatusResult
	err    error

	gotOrderID string
}

func (s *stubOrderService) GetOrder(_ context.Context, orderID string) (app.OrderStatusResult, error) {
	s.gotOrderID = orderID
	if s.err != nil {
		return app.OrderStatusResult{}, s.err
	}
	return s.result, nil
}
