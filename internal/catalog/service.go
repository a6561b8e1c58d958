package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Service coordinates catalog management. Checkout never goes through here;
// it owns its own locked stock path.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, tenantID, filters)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	if p.Kind == KindApparel {
		// Variants own apparel stock; the scalar column stays untouched.
		p.Stock = 0
	}
	p.IsActive = true
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, p Product) error {
	existing, err := s.repo.Get(ctx, p.TenantID, p.ID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	p.Kind = existing.Kind
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	if existing.Kind == KindApparel && p.Variants != nil {
		return s.repo.ReplaceVariants(ctx, p.ID, p.Variants)
	}
	return nil
}

func (s *Service) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.SetActive(ctx, tenantID, id, false)
}

func (s *Service) Activate(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.SetActive(ctx, tenantID, id, true)
}

// AdjustStock applies a manual administrative stock correction. For apparel
// a variant id is required since only variants hold stock.
func (s *Service) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, variantID *uuid.UUID, delta float64) error {
	p, err := s.repo.Get(ctx, tenantID, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p.Kind == KindApparel {
		if variantID == nil {
			return fmt.Errorf("%w: apparel stock lives on variants", ErrVariantsForbidden)
		}
		if _, ok := p.FindVariant(*variantID); !ok {
			return shared.ErrNotFound
		}
		return s.repo.AdjustVariantStock(ctx, productID, *variantID, delta)
	}
	if variantID != nil {
		return ErrVariantsForbidden
	}
	return s.repo.AdjustStock(ctx, tenantID, productID, delta)
}
