// Package gateway speaks the payment gateway's wire conventions: the signed
// redirect that initiates a payment and the signed asynchronous notification
// that reports its outcome.
package gateway

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// TradeStatusSuccess is the only notification outcome that settles an order.
const TradeStatusSuccess = "TRADE_SUCCESS"

// Config is process-wide gateway configuration; it is not part of the data model.
type Config struct {
	MerchantID string
	Secret     string
	PayURL     string
	NotifyURL  string
	ReturnURL  string
}

// PaymentRequest is the redirect descriptor handed to the buyer's browser.
type PaymentRequest struct {
	URL    string
	Params map[string]string
}

// NewPaymentRequest builds the signed redirect for an order.
func (c Config) NewPaymentRequest(orderID, productName string, amount decimal.Decimal) PaymentRequest {
	params := map[string]string{
		"pid":          c.MerchantID,
		"out_trade_no": orderID,
		"name":         productName,
		"money":        amount.StringFixed(2),
		"notify_url":   c.NotifyURL,
		"return_url":   c.ReturnURL,
	}
	params[signTypeField] = "MD5"
	params[signField] = Sign(params, c.Secret)
	return PaymentRequest{URL: c.PayURL, Params: params}
}

// Notification is one inbound gateway callback. Raw keeps every field the
// gateway sent so the signature can be recomputed over the full payload.
type Notification struct {
	TradeStatus string
	OrderID     string
	GatewayTxn  string
	Amount      string
	Raw         map[string]string
}

// ParseNotification flattens a query-string or form payload. Repeated keys
// keep the first value, matching what the gateway actually sends.
func ParseNotification(values url.Values) Notification {
	raw := make(map[string]string, len(values))
	for k := range values {
		raw[k] = values.Get(k)
	}
	return Notification{
		TradeStatus: raw["trade_status"],
		OrderID:     raw["out_trade_no"],
		GatewayTxn:  raw["trade_no"],
		Amount:      raw["money"],
		Raw:         raw,
	}
}

// Verified checks the notification's signature against the shared secret.
func (n Notification) Verified(secret string) bool {
	return Verify(n.Raw, secret)
}
