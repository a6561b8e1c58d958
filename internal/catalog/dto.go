package catalog

import "github.com/google/uuid"

// ProductForm is the create/update payload.
type ProductForm struct {
	SKU         string        `json:"sku" validate:"required,max=100"`
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description,omitempty" validate:"max=2000"`
	Kind        string        `json:"kind" validate:"required,oneof=standard weighable apparel"`
	SalePrice   float64       `json:"sale_price" validate:"gte=0"`
	CostPrice   float64       `json:"cost_price" validate:"gte=0"`
	Stock       float64       `json:"stock" validate:"gte=0"`
	Variants    []VariantForm `json:"variants,omitempty" validate:"omitempty,dive"`
}

// VariantForm describes one size/color entry of an apparel product.
type VariantForm struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Size  string     `json:"size" validate:"max=50"`
	Color string     `json:"color" validate:"max=50"`
	Stock float64    `json:"stock" validate:"gte=0"`
}

// AdjustStockForm is the manual stock correction payload.
type AdjustStockForm struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Delta     float64    `json:"delta" validate:"required"`
}
