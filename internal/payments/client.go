// Package payments integrates the external payment gateway: intent creation
// for gateway-method sales and webhook-driven settlement of the ledger.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Gateway payment statuses as reported by the provider.
const (
	GatewayApproved = "approved"
	GatewayPending  = "pending"
	GatewayRejected = "rejected"
	GatewayRefunded = "refunded"
	GatewayCanceled = "cancelled"
)

// IntentRequest asks the gateway to collect a sale.
type IntentRequest struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	SaleID      uuid.UUID `json:"sale_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
}

// Intent is the gateway's side of a payment in flight.
type Intent struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Payment is the gateway's view of a payment, fetched when a webhook fires.
// TenantID and SaleID round-trip through the intent metadata.
type Payment struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Amount   float64   `json:"amount"`
	TenantID uuid.UUID `json:"tenant_id"`
	SaleID   uuid.UUID `json:"sale_id"`
}

// Client talks to the payment gateway's REST API.
type Client struct {
	http *resty.Client
}

// NewClient configures the gateway client. Retries are safe: intent creation
// is idempotent on sale id at the gateway.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &Client{http: c}
}

// CreateIntent registers the sale with the gateway and returns the checkout
// handoff.
func (c *Client) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	var out Intent
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/payments")
	if err != nil {
		return Intent{}, fmt.Errorf("payments: create intent: %w", err)
	}
	if resp.IsError() {
		return Intent{}, fmt.Errorf("payments: create intent: gateway returned %s", resp.Status())
	}
	return out, nil
}

// GetPayment fetches the authoritative payment state. Webhook payloads only
// carry ids; the state always comes from here.
func (c *Client) GetPayment(ctx context.Context, id string) (Payment, error) {
	var out Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", id).
		Get("/v1/payments/{id}")
	if err != nil {
		return Payment{}, fmt.Errorf("payments: get payment %s: %w", id, err)
	}
	if resp.IsError() {
		return Payment{}, fmt.Errorf("payments: get payment %s: gateway returned %s", id, resp.Status())
	}
	return out, nil
}
