package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memoryRepository struct {
	mu    sync.Mutex
	sales map[uuid.UUID]Sale
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{sales: map[uuid.UUID]Sale{}}
}

func (m *memoryRepository) add(s Sale) Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.sales[s.ID] = s
	return s
}

func (m *memoryRepository) Get(_ context.Context, tenantID, id uuid.UUID) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok || s.TenantID != tenantID {
		return Sale{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepository) List(_ context.Context, tenantID uuid.UUID, filters ListFilters) ([]Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sale
	for _, s := range m.sales {
		if s.TenantID != tenantID {
			continue
		}
		if filters.From != nil && s.OccurredAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && !s.OccurredAt.Before(*filters.To) {
			continue
		}
		if filters.Status != nil && s.PaymentStatus != *filters.Status {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, from, to PaymentStatus, paymentRef *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok || s.TenantID != tenantID || s.PaymentStatus != from {
		return ErrInvalidTransition
	}
	s.PaymentStatus = to
	if paymentRef != nil {
		s.PaymentRef = paymentRef
	}
	m.sales[id] = s
	return nil
}

func (m *memoryRepository) SummarizeDay(_ context.Context, tenantID uuid.UUID, day time.Time) (DaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var s DaySummary
	for _, sale := range m.sales {
		if sale.TenantID != tenantID || sale.PaymentStatus == StatusVoided {
			continue
		}
		if sale.OccurredAt.Before(start) || !sale.OccurredAt.Before(end) {
			continue
		}
		s.Count++
		s.Total += sale.Total
	}
	return s, nil
}

func TestMarkPaidTransition(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)
	tenantID := uuid.New()
	sale := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentCard, PaymentStatus: StatusPending, Total: 30})

	ref := "txn-123"
	require.NoError(t, svc.MarkPaid(context.Background(), tenantID, sale.ID, &ref))

	got, err := svc.Get(context.Background(), tenantID, sale.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, got.PaymentStatus)
	require.Equal(t, "txn-123", *got.PaymentRef)

	// Paying twice is not a transition from pending anymore.
	require.ErrorIs(t, svc.MarkPaid(context.Background(), tenantID, sale.ID, &ref), ErrInvalidTransition)
}

func TestVoidPendingAndPaid(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)
	tenantID := uuid.New()

	pending := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentCard, PaymentStatus: StatusPending})
	require.NoError(t, svc.Void(context.Background(), tenantID, pending.ID))

	paidCash := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentCash, PaymentStatus: StatusPaid})
	require.NoError(t, svc.Void(context.Background(), tenantID, paidCash.ID))

	got, err := svc.Get(context.Background(), tenantID, paidCash.ID)
	require.NoError(t, err)
	require.Equal(t, StatusVoided, got.PaymentStatus)
}

func TestVoidRejectsGatewayPaid(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)
	tenantID := uuid.New()

	sale := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentGateway, PaymentStatus: StatusPaid})
	require.ErrorIs(t, svc.Void(context.Background(), tenantID, sale.ID), ErrGatewayVoid)

	// Still pending at the gateway: fine to void locally.
	pending := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentGateway, PaymentStatus: StatusPending})
	require.NoError(t, svc.Void(context.Background(), tenantID, pending.ID))
}

func TestVoidAlreadyVoided(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)
	tenantID := uuid.New()

	sale := repo.add(Sale{TenantID: tenantID, PaymentMethod: PaymentCash, PaymentStatus: StatusVoided})
	require.ErrorIs(t, svc.Void(context.Background(), tenantID, sale.ID), ErrInvalidTransition)
}

func TestTransitionsAreTenantScoped(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)

	sale := repo.add(Sale{TenantID: uuid.New(), PaymentMethod: PaymentCard, PaymentStatus: StatusPending})
	err := svc.Void(context.Background(), uuid.New(), sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)
	tenantID := uuid.New()
	now := time.Now().UTC()

	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusPaid, OccurredAt: now.Add(-48 * time.Hour)})
	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusPaid, OccurredAt: now})
	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusVoided, OccurredAt: now})
	repo.add(Sale{TenantID: uuid.New(), PaymentStatus: StatusPaid, OccurredAt: now})

	from := now.Add(-time.Hour)
	paid := StatusPaid
	list, total, err := svc.List(context.Background(), tenantID, ListFilters{From: &from, Status: &paid})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
}

func TestSummarizeDaySkipsVoided(t *testing.T) {
	repo := newMemoryRepository()
	tenantID := uuid.New()
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusPaid, Total: 30, OccurredAt: day.Add(9 * time.Hour)})
	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusPending, Total: 12.5, OccurredAt: day.Add(20 * time.Hour)})
	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusVoided, Total: 99, OccurredAt: day.Add(10 * time.Hour)})
	repo.add(Sale{TenantID: tenantID, PaymentStatus: StatusPaid, Total: 5, OccurredAt: day.Add(25 * time.Hour)})

	s, err := repo.SummarizeDay(context.Background(), tenantID, day)
	require.NoError(t, err)
	require.Equal(t, 2, s.Count)
	require.Equal(t, 42.5, s.Total)
}

func TestPaymentMethodInitialStatus(t *testing.T) {
	require.Equal(t, StatusPaid, PaymentCash.InitialStatus())
	require.Equal(t, StatusPending, PaymentCard.InitialStatus())
	require.Equal(t, StatusPending, PaymentTransfer.InitialStatus())
	require.Equal(t, StatusPending, PaymentGateway.InitialStatus())
}
