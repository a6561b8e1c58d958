package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates how a product counts and stores stock.
type Kind string

const (
	// KindStandard sells in whole units against a single stock scalar.
	KindStandard Kind = "standard"
	// KindWeighable sells fractional quantities (weight/volume).
	KindWeighable Kind = "weighable"
	// KindApparel partitions stock across size/color variants.
	KindApparel Kind = "apparel"
)

// Valid reports whether the kind is one of the supported discriminators.
func (k Kind) Valid() bool {
	switch k {
	case KindStandard, KindWeighable, KindApparel:
		return true
	}
	return false
}

// AllowsFractionalQuantity reports whether quantities may carry decimals.
// Only weighable goods sell by weight; everything else sells whole units.
func (k Kind) AllowsFractionalQuantity() bool {
	return k == KindWeighable
}

// Variant is one size/color combination of an apparel product carrying its
// own stock scalar. Variants are the authoritative stock records for
// apparel; the product aggregate is always derived from them.
type Variant struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Stock     float64   `json:"stock"`
}

// Label renders the variant for error messages and tickets, e.g. "M/Red".
func (v Variant) Label() string {
	return fmt.Sprintf("%s/%s", v.Size, v.Color)
}

// Product is a catalog item scoped to one tenant. For apparel products the
// Stock field is ignored; AvailableStock derives the aggregate from variants.
type Product struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Kind        Kind      `json:"kind"`
	SalePrice   float64   `json:"sale_price"`
	CostPrice   float64   `json:"cost_price"`
	Stock       float64   `json:"stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Variants    []Variant `json:"variants,omitempty"`
}

// AvailableStock returns the sellable quantity: the variant sum for apparel,
// the scalar for everything else.
func (p Product) AvailableStock() float64 {
	if p.Kind != KindApparel {
		return p.Stock
	}
	var total float64
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// FindVariant looks a variant up by id.
func (p Product) FindVariant(id uuid.UUID) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

var (
	// ErrDuplicateSKU indicates the SKU is already taken within the tenant.
	ErrDuplicateSKU = errors.New("catalog: sku already exists in this store")
	// ErrInvalidKind indicates an unsupported product kind.
	ErrInvalidKind = errors.New("catalog: invalid product kind")
	// ErrVariantsForbidden indicates variants on a non-apparel product.
	ErrVariantsForbidden = errors.New("catalog: only apparel products carry variants")
)

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	Kind     *Kind
	IsActive *bool
	Page     int
	PerPage  int
}
