package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/gateway"
)

// Settler is the minimal interface needed to process a gateway callback.
type Settler interface {
	Settle(ctx context.Context, n gateway.Notification) (app.SettleResult, error)
}

// HandleNotify returns the handler for the payment gateway's asynchronous
// callback. The gateway retries until it reads the plain-text ack, so every
// fully-verified notification is acknowledged even when delivery fell back
// to the no-stock branch.
func HandleNotify(svc Settler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, ok := notificationValues(r)
		if !ok {
			plainText(w, http.StatusBadRequest, "fail")
			return
		}

		_, err := svc.Settle(r.Context(), gateway.ParseNotification(values))
		if err != nil {
			switch err {
			case domain.ErrBadSignature, domain.ErrAmountMismatch:
				plainText(w, http.StatusBadRequest, "fail")
			case domain.ErrOrderNotFound, domain.ErrInvalidID:
				plainText(w, http.StatusNotFound, "fail")
			default:
				plainText(w, http.StatusInternalServerError, "fail")
			}
			return
		}

		plainText(w, http.StatusOK, "success")
	}
}

// notificationValues accepts the payload as query string or form body.
func notificationValues(r *http.Request) (url.Values, bool) {
	if r.Method == http.MethodGet {
		return r.URL.Query(), true
	}
	if err := r.ParseForm(); err != nil {
		return nil, false
	}
	return r.PostForm, true
}

func plainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
