package insights

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/shared"
	"github.com/meridian-pos/meridian-pos/internal/tenant"
)

type memoryRepository struct {
	mu       sync.Mutex
	insights map[uuid.UUID]Insight
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{insights: map[uuid.UUID]Insight{}}
}

func (m *memoryRepository) Create(_ context.Context, in Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	in.IsActive = true
	in.CreatedAt = time.Now()
	m.insights[in.ID] = in
	return nil
}

func (m *memoryRepository) ListActive(_ context.Context, tenantID uuid.UUID) ([]Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Insight
	for _, in := range m.insights {
		if in.TenantID == tenantID && in.IsActive {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memoryRepository) ListActiveByKind(_ context.Context, tenantID uuid.UUID, kind InsightKind) ([]Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Insight
	for _, in := range m.insights {
		if in.TenantID == tenantID && in.IsActive && in.Kind == kind {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memoryRepository) Archive(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.insights[id]
	if !ok || in.TenantID != tenantID {
		return shared.ErrNotFound
	}
	in.IsActive = false
	m.insights[id] = in
	return nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID][]catalog.Product
}

func (f *fakeCatalog) ListLowStock(_ context.Context, tenantID uuid.UUID, threshold float64) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Product
	for _, p := range f.products[tenantID] {
		if p.IsActive && p.AvailableStock() <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLedger struct {
	summaries map[uuid.UUID]sales.DaySummary
}

func (f *fakeLedger) SummarizeDay(_ context.Context, tenantID uuid.UUID, _ time.Time) (sales.DaySummary, error) {
	return f.summaries[tenantID], nil
}

type fakeTenants struct {
	tenants []tenant.Tenant
}

func (f *fakeTenants) ListActive(_ context.Context) ([]tenant.Tenant, error) {
	return f.tenants, nil
}

func newTestService(repo Repository, cat CatalogReader, ledger SalesReader, tenants TenantLister) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, cat, ledger, tenants, logger)
}

func TestScanLowStockThresholds(t *testing.T) {
	tenantID := uuid.New()
	cat := &fakeCatalog{products: map[uuid.UUID][]catalog.Product{
		tenantID: {
			{ID: uuid.New(), TenantID: tenantID, SKU: "OK-1", Name: "Plenty", Kind: catalog.KindStandard, Stock: 50, IsActive: true},
			{ID: uuid.New(), TenantID: tenantID, SKU: "LOW-1", Name: "Low", Kind: catalog.KindStandard, Stock: 10, IsActive: true},
			{ID: uuid.New(), TenantID: tenantID, SKU: "CRIT-1", Name: "Critical", Kind: catalog.KindStandard, Stock: 2, IsActive: true},
		},
	}}
	repo := newMemoryRepository()
	svc := newTestService(repo, cat, &fakeLedger{}, &fakeTenants{})

	created, err := svc.ScanLowStock(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	active, err := repo.ListActive(context.Background(), tenantID)
	require.NoError(t, err)
	byURL := map[string]Urgency{}
	for _, in := range active {
		byURL[in.Meta["sku"].(string)] = in.Urgency
	}
	require.Equal(t, UrgencyWarning, byURL["LOW-1"])
	require.Equal(t, UrgencyCritical, byURL["CRIT-1"])
	require.NotContains(t, byURL, "OK-1")
}

func TestScanLowStockDeduplicates(t *testing.T) {
	tenantID := uuid.New()
	cat := &fakeCatalog{products: map[uuid.UUID][]catalog.Product{
		tenantID: {
			{ID: uuid.New(), TenantID: tenantID, SKU: "LOW-1", Name: "Low", Kind: catalog.KindStandard, Stock: 5, IsActive: true},
		},
	}}
	repo := newMemoryRepository()
	svc := newTestService(repo, cat, &fakeLedger{}, &fakeTenants{})

	created, err := svc.ScanLowStock(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Second sweep finds the same product but the alert is still active.
	created, err = svc.ScanLowStock(context.Background(), tenantID)
	require.NoError(t, err)
	require.Zero(t, created)

	// After archiving, the next sweep alerts again.
	active, _ := repo.ListActive(context.Background(), tenantID)
	require.Len(t, active, 1)
	require.NoError(t, repo.Archive(context.Background(), tenantID, active[0].ID))

	created, err = svc.ScanLowStock(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, created)
}

func TestScanLowStockUsesApparelAggregate(t *testing.T) {
	tenantID := uuid.New()
	cat := &fakeCatalog{products: map[uuid.UUID][]catalog.Product{
		tenantID: {
			{
				ID: uuid.New(), TenantID: tenantID, SKU: "TSHIRT-1", Name: "Tee",
				Kind: catalog.KindApparel, Stock: 0, IsActive: true,
				Variants: []catalog.Variant{{Size: "S", Stock: 1}, {Size: "M", Stock: 1}},
			},
		},
	}}
	repo := newMemoryRepository()
	svc := newTestService(repo, cat, &fakeLedger{}, &fakeTenants{})

	created, err := svc.ScanLowStock(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	active, _ := repo.ListActive(context.Background(), tenantID)
	require.Equal(t, UrgencyCritical, active[0].Urgency)
	require.Equal(t, 2.0, active[0].Meta["stock"])
}

func TestDailySummary(t *testing.T) {
	tenantID := uuid.New()
	ledger := &fakeLedger{summaries: map[uuid.UUID]sales.DaySummary{
		tenantID: {Count: 1280, Total: 9876.5},
	}}
	repo := newMemoryRepository()
	svc := newTestService(repo, &fakeCatalog{}, ledger, &fakeTenants{})

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.DailySummary(context.Background(), tenantID, day))

	active, _ := repo.ListActive(context.Background(), tenantID)
	require.Len(t, active, 1)
	require.Equal(t, KindDailySummary, active[0].Kind)
	require.Equal(t, UrgencyInfo, active[0].Urgency)
	// The printer groups thousands.
	require.Contains(t, active[0].Message, "1,280 sales")
	require.Contains(t, active[0].Message, "2026-08-29")

	// No sales, no insight.
	quiet := uuid.New()
	require.NoError(t, svc.DailySummary(context.Background(), quiet, day))
	none, _ := repo.ListActive(context.Background(), quiet)
	require.Empty(t, none)
}

func TestScanAllTenantsFansOut(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cat := &fakeCatalog{products: map[uuid.UUID][]catalog.Product{
		a: {{ID: uuid.New(), TenantID: a, SKU: "LOW-A", Name: "A", Kind: catalog.KindStandard, Stock: 1, IsActive: true}},
		b: {{ID: uuid.New(), TenantID: b, SKU: "LOW-B", Name: "B", Kind: catalog.KindStandard, Stock: 1, IsActive: true}},
	}}
	repo := newMemoryRepository()
	tenants := &fakeTenants{tenants: []tenant.Tenant{
		{ID: a, Name: "Store A", IsActive: true},
		{ID: b, Name: "Store B", IsActive: true},
	}}
	svc := newTestService(repo, cat, &fakeLedger{}, tenants)

	require.NoError(t, svc.ScanAllTenants(context.Background()))

	forA, _ := repo.ListActive(context.Background(), a)
	forB, _ := repo.ListActive(context.Background(), b)
	require.Len(t, forA, 1)
	require.Len(t, forB, 1)
}
