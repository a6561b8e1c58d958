package catalog

import (
	"errors"
	"strings"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return errors.New("catalog: product sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("catalog: product name is required")
	}
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.SalePrice < 0 || p.CostPrice < 0 {
		return errors.New("catalog: prices must not be negative")
	}
	if p.Stock < 0 {
		return errors.New("catalog: stock must not be negative")
	}
	if p.Kind != KindApparel && len(p.Variants) > 0 {
		return ErrVariantsForbidden
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Size) == "" && strings.TrimSpace(v.Color) == "" {
			return errors.New("catalog: variant needs a size or color")
		}
		if v.Stock < 0 {
			return errors.New("catalog: variant stock must not be negative")
		}
	}
	return nil
}
