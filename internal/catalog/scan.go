package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScanResult is the trimmed product view returned to barcode scanners at the
// register. Kept minimal so the hot path stays fast.
type ScanResult struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	SalePrice float64   `json:"sale_price"`
	Stock     float64   `json:"stock"`
	Kind      Kind      `json:"kind"`
	HasStock  bool      `json:"has_stock"`
}

// ScanService answers SKU lookups with a short-TTL redis cache in front of
// the catalog. Stale stock readings here are acceptable; checkout always
// re-reads under lock.
type ScanService struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
}

// NewScanService builds ScanService. A nil client disables caching.
func NewScanService(repo Repository, client *redis.Client, ttl time.Duration) *ScanService {
	return &ScanService{repo: repo, client: client, ttl: ttl}
}

func scanCacheKey(tenantID uuid.UUID, code string) string {
	return fmt.Sprintf("scan:%s:%s", tenantID, code)
}

// Scan resolves an active product by SKU within the tenant.
func (s *ScanService) Scan(ctx context.Context, tenantID uuid.UUID, code string) (ScanResult, error) {
	key := scanCacheKey(tenantID, code)
	if s.client != nil {
		raw, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached ScanResult
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			// Cache trouble must not break scanning; fall through to the DB.
			_ = err
		}
	}

	p, err := s.repo.GetBySKU(ctx, tenantID, code)
	if err != nil {
		return ScanResult{}, err
	}
	if !p.IsActive {
		return ScanResult{}, ErrProductInactive
	}

	available := p.AvailableStock()
	result := ScanResult{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		SalePrice: p.SalePrice,
		Stock:     available,
		Kind:      p.Kind,
		HasStock:  available > 0,
	}

	if s.client != nil && s.ttl > 0 {
		if raw, err := json.Marshal(result); err == nil {
			_ = s.client.Set(ctx, key, raw, s.ttl).Err()
		}
	}
	return result, nil
}

// Invalidate drops the cached entry after catalog edits.
func (s *ScanService) Invalidate(ctx context.Context, tenantID uuid.UUID, code string) {
	if s.client == nil {
		return
	}
	_ = s.client.Del(ctx, scanCacheKey(tenantID, code)).Err()
}

// ErrProductInactive indicates a scan hit a deactivated product.
var ErrProductInactive = errors.New("catalog: product is inactive")
