package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestScanHitsCacheOnSecondLookup(t *testing.T) {
	repo := newMemoryRepository()
	client := newTestRedis(t)
	scanner := NewScanService(repo, client, time.Minute)
	ctx := context.Background()
	tenantID := uuid.New()

	p, err := repo.Create(ctx, Product{
		TenantID: tenantID, SKU: "COLA-1", Name: "Cola", Kind: KindStandard,
		SalePrice: 2.5, Stock: 7, IsActive: true,
	})
	require.NoError(t, err)

	first, err := scanner.Scan(ctx, tenantID, "COLA-1")
	require.NoError(t, err)
	require.Equal(t, p.ID, first.ID)
	require.Equal(t, 7.0, first.Stock)
	require.True(t, first.HasStock)

	// Mutate the store behind the cache; the second scan serves the cached view.
	require.NoError(t, repo.AdjustStock(ctx, tenantID, p.ID, -7))
	second, err := scanner.Scan(ctx, tenantID, "COLA-1")
	require.NoError(t, err)
	require.Equal(t, 7.0, second.Stock)

	// After invalidation the fresh stock is visible.
	scanner.Invalidate(ctx, tenantID, "COLA-1")
	third, err := scanner.Scan(ctx, tenantID, "COLA-1")
	require.NoError(t, err)
	require.Equal(t, 0.0, third.Stock)
	require.False(t, third.HasStock)
}

func TestScanInactiveProduct(t *testing.T) {
	repo := newMemoryRepository()
	scanner := NewScanService(repo, newTestRedis(t), time.Minute)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := repo.Create(ctx, Product{
		TenantID: tenantID, SKU: "OLD-1", Name: "Retired", Kind: KindStandard, IsActive: false,
	})
	require.NoError(t, err)

	_, err = scanner.Scan(ctx, tenantID, "OLD-1")
	require.ErrorIs(t, err, ErrProductInactive)
}

func TestScanIsTenantScoped(t *testing.T) {
	repo := newMemoryRepository()
	scanner := NewScanService(repo, newTestRedis(t), time.Minute)
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()

	_, err := repo.Create(ctx, Product{
		TenantID: tenantA, SKU: "COLA-1", Name: "Cola", Kind: KindStandard, Stock: 3, IsActive: true,
	})
	require.NoError(t, err)

	got, err := scanner.Scan(ctx, tenantA, "COLA-1")
	require.NoError(t, err)
	require.Equal(t, "Cola", got.Name)

	_, err = scanner.Scan(ctx, tenantB, "COLA-1")
	require.Error(t, err)
}

func TestScanApparelDerivesVariantStock(t *testing.T) {
	repo := newMemoryRepository()
	scanner := NewScanService(repo, nil, 0)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := repo.Create(ctx, Product{
		TenantID: tenantID, SKU: "TSHIRT-1", Name: "Tee", Kind: KindApparel, IsActive: true,
		Variants: []Variant{{Size: "S", Stock: 1}, {Size: "M", Stock: 2}},
	})
	require.NoError(t, err)

	got, err := scanner.Scan(ctx, tenantID, "TSHIRT-1")
	require.NoError(t, err)
	require.Equal(t, 3.0, got.Stock)
	require.True(t, got.HasStock)
}
