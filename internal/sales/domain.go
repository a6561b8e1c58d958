package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the customer settled the sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	// PaymentGateway means the sale is collected through the external payment
	// gateway; it starts pending and is confirmed by webhook.
	PaymentGateway PaymentMethod = "gateway"
)

// Valid reports whether the method is supported.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentGateway:
		return true
	}
	return false
}

// InitialStatus returns the payment status a fresh sale starts in. Cash is
// settled at the register; everything else awaits confirmation.
func (m PaymentMethod) InitialStatus() PaymentStatus {
	if m == PaymentCash {
		return StatusPaid
	}
	return StatusPending
}

// PaymentStatus is the settlement state of a sale.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusVoided  PaymentStatus = "voided"
)

// Sale is a committed transaction header.
type Sale struct {
	ID            uuid.UUID     `json:"id"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentRef    *string       `json:"payment_ref,omitempty"`
	InvoiceRef    *string       `json:"invoice_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Lines         []SaleLine    `json:"lines,omitempty"`
}

// SaleLine is one item of a sale. Name, SKU and unit price are snapshotted
// at checkout time so later catalog edits never rewrite history.
type SaleLine struct {
	ID          uuid.UUID  `json:"id"`
	SaleID      uuid.UUID  `json:"sale_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	ProductSKU  string     `json:"product_sku"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Subtotal    float64    `json:"subtotal"`
}

var (
	// ErrInvalidTransition indicates a payment-status change the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("sales: invalid payment status transition")
	// ErrGatewayVoid indicates an attempt to void a gateway-paid sale
	// directly; those require a refund through the gateway first.
	ErrGatewayVoid = errors.New("sales: gateway-paid sales must be refunded through the gateway")
)

// ListFilters narrows ledger listings.
type ListFilters struct {
	From    *time.Time
	To      *time.Time
	Status  *PaymentStatus
	Page    int
	PerPage int
}
