// Package checkout implements the sale transaction engine: cart validation,
// row-locked stock decrements and atomic sale persistence.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/sales"
)

// CartLine is one submitted cart entry. UnitPrice is what the register
// displayed to the customer; the engine snapshots the authoritative price
// from the locked catalog row, never from here.
type CartLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  float64
	UnitPrice float64
}

// CheckoutInput is a complete checkout request.
type CheckoutInput struct {
	TenantID      uuid.UUID
	Lines         []CartLine
	PaymentMethod sales.PaymentMethod
	// DeclaredTotal, when set, must agree with the sum of the declared line
	// prices within the money tolerance. Guards against register drift.
	DeclaredTotal *float64
	InvoiceRef    *string
}

// ReceiptLine mirrors a persisted sale line.
type ReceiptLine struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	ProductSKU  string     `json:"product_sku"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Subtotal    float64    `json:"subtotal"`
}

// Receipt is returned after a committed checkout.
type Receipt struct {
	SaleID        uuid.UUID           `json:"sale_id"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Total         float64             `json:"total"`
	PaymentMethod sales.PaymentMethod `json:"payment_method"`
	PaymentStatus sales.PaymentStatus `json:"payment_status"`
	Lines         []ReceiptLine       `json:"lines"`
}

var (
	// ErrInvalidSale marks structural cart problems. All ValidationErrors
	// unwrap to it.
	ErrInvalidSale = errors.New("checkout: invalid sale")
	// ErrInsufficientStock marks stock shortfalls discovered under lock.
	ErrInsufficientStock = errors.New("checkout: insufficient stock")
	// ErrProductNotFound means a cart line references a product the tenant
	// does not have.
	ErrProductNotFound = errors.New("checkout: product not found")
	// ErrVariantNotFound means an apparel line references an unknown variant.
	ErrVariantNotFound = errors.New("checkout: variant not found")
	// ErrLockTimeout means a row lock could not be acquired in time. The
	// request is safe to retry.
	ErrLockTimeout = errors.New("checkout: stock row is locked, retry")
	// ErrCommitFailure means the transaction failed at commit. Nothing was
	// persisted.
	ErrCommitFailure = errors.New("checkout: commit failed")
)

// ValidationError aggregates every structural violation found in a cart so
// the register can surface them all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: invalid sale: %s", strings.Join(e.Violations, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSale }

// InsufficientStockError names the short line so the register can tell the
// cashier exactly what to remove.
type InsufficientStockError struct {
	ProductName  string  `json:"product_name"`
	SKU          string  `json:"sku"`
	VariantLabel string  `json:"variant_label,omitempty"`
	Available    float64 `json:"available"`
	Requested    float64 `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if e.VariantLabel != "" {
		name += " (" + e.VariantLabel + ")"
	}
	return fmt.Sprintf("checkout: insufficient stock for %s [%s]: have %g, want %g", name, e.SKU, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// CommitError wraps the driver error behind ErrCommitFailure so callers get
// a stable sentinel and operators keep the cause.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("checkout: commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailure, e.Err} }
