package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/tenant"
)

// CatalogReader is the slice of the catalog the scanner needs.
type CatalogReader interface {
	ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold float64) ([]catalog.Product, error)
}

// SalesReader is the slice of the ledger the summary needs.
type SalesReader interface {
	SummarizeDay(ctx context.Context, tenantID uuid.UUID, day time.Time) (sales.DaySummary, error)
}

// TenantLister enumerates stores for the background fan-out.
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Tenant, error)
}

// scanConcurrency bounds how many tenants are scanned at once.
const scanConcurrency = 4

// Service generates and serves insights.
type Service struct {
	repo    Repository
	catalog CatalogReader
	ledger  SalesReader
	tenants TenantLister
	logger  *slog.Logger
	printer *message.Printer
}

// NewService builds Service.
func NewService(repo Repository, cat CatalogReader, ledger SalesReader, tenants TenantLister, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: cat,
		ledger:  ledger,
		tenants: tenants,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

func (s *Service) ListActive(ctx context.Context, tenantID uuid.UUID) ([]Insight, error) {
	return s.repo.ListActive(ctx, tenantID)
}

func (s *Service) Archive(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Archive(ctx, tenantID, id)
}

// ScanLowStock raises an alert for every active product at or below the low
// threshold, escalating at the critical threshold. Products that already
// have an active low-stock alert are skipped so the owner is not re-pinged
// every scan.
func (s *Service) ScanLowStock(ctx context.Context, tenantID uuid.UUID) (int, error) {
	products, err := s.catalog.ListLowStock(ctx, tenantID, LowStockThreshold)
	if err != nil {
		return 0, fmt.Errorf("list low stock: %w", err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	active, err := s.repo.ListActiveByKind(ctx, tenantID, KindLowStock)
	if err != nil {
		return 0, fmt.Errorf("list active insights: %w", err)
	}
	alerted := make(map[string]bool, len(active))
	for _, in := range active {
		if pid, ok := in.Meta["product_id"].(string); ok {
			alerted[pid] = true
		}
	}

	created := 0
	for _, p := range products {
		if alerted[p.ID.String()] {
			continue
		}
		stock := p.AvailableStock()
		urgency := UrgencyWarning
		if stock <= CriticalStockThreshold {
			urgency = UrgencyCritical
		}
		in := Insight{
			TenantID: tenantID,
			Kind:     KindLowStock,
			Urgency:  urgency,
			Message:  s.printer.Sprintf("%s (%s) is running low: %v units left", p.Name, p.SKU, stock),
			Meta: map[string]any{
				"product_id": p.ID.String(),
				"sku":        p.SKU,
				"stock":      stock,
			},
		}
		if err := s.repo.Create(ctx, in); err != nil {
			return created, fmt.Errorf("create insight: %w", err)
		}
		created++
	}
	return created, nil
}

// DailySummary records yesterday's totals as an info insight. Days with no
// sales produce nothing.
func (s *Service) DailySummary(ctx context.Context, tenantID uuid.UUID, day time.Time) error {
	sum, err := s.ledger.SummarizeDay(ctx, tenantID, day)
	if err != nil {
		return fmt.Errorf("summarize day: %w", err)
	}
	if sum.Count == 0 {
		return nil
	}
	return s.repo.Create(ctx, Insight{
		TenantID: tenantID,
		Kind:     KindDailySummary,
		Urgency:  UrgencyInfo,
		Message:  s.printer.Sprintf("%v sales on %s for a total of %.2f", sum.Count, day.Format("2006-01-02"), sum.Total),
		Meta: map[string]any{
			"date":  day.Format("2006-01-02"),
			"count": sum.Count,
			"total": sum.Total,
		},
	})
}

// ScanAllTenants fans the low-stock scan out over every active store. One
// failing tenant does not stop the others; the first error is reported after
// the sweep completes.
func (s *Service) ScanAllTenants(ctx context.Context) error {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, t := range tenants {
		g.Go(func() error {
			n, err := s.ScanLowStock(ctx, t.ID)
			if err != nil {
				s.logger.Error("low stock scan", slog.Any("error", err), slog.String("tenant", t.Name))
				return err
			}
			if n > 0 {
				s.logger.Info("low stock alerts raised", slog.Int("count", n), slog.String("tenant", t.Name))
			}
			return nil
		})
	}
	return g.Wait()
}

// SummarizeAllTenants records yesterday's summary for every active store.
func (s *Service) SummarizeAllTenants(ctx context.Context) error {
	tenants, err := s.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, t := range tenants {
		g.Go(func() error {
			if err := s.DailySummary(ctx, t.ID, yesterday); err != nil {
				s.logger.Error("daily summary", slog.Any("error", err), slog.String("tenant", t.Name))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
