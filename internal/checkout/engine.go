package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// AuditRecorder records committed checkouts. Nil disables auditing.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics counts checkout outcomes. Nil disables metrics.
type Metrics interface {
	ObserveCheckout(outcome string, seconds float64)
}

// Service is the sale transaction engine. One Checkout call is one atomic
// unit of work: either stock moves and the sale exists, or neither happened.
type Service struct {
	store   Store
	logger  *slog.Logger
	audit   AuditRecorder
	metrics Metrics
}

// NewService builds the engine.
func NewService(store Store, logger *slog.Logger, audit AuditRecorder, metrics Metrics) *Service {
	return &Service{store: store, logger: logger, audit: audit, metrics: metrics}
}

// Checkout validates the cart, then inside one transaction locks every
// referenced stock row in canonical order, re-validates against the locked
// rows, decrements stock and persists the sale. Any error rolls everything
// back.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (Receipt, error) {
	started := time.Now()

	if err := ValidateInput(in); err != nil {
		s.observe("rejected", started)
		return Receipt{}, err
	}

	// Locks always go product id first, then variant id, regardless of the
	// order the register submitted lines. Two carts sharing products can
	// never hold locks in opposite orders, so they queue instead of
	// deadlocking.
	lines := canonicalOrder(in.Lines)

	var receipt Receipt
	err := s.store.InTx(ctx, func(tx Tx) error {
		saleID := uuid.New()
		now := time.Now().UTC()
		saleLines := make([]sales.SaleLine, 0, len(lines))
		var total float64

		for _, cl := range lines {
			line, err := s.processLine(ctx, tx, in.TenantID, saleID, cl)
			if err != nil {
				return err
			}
			saleLines = append(saleLines, line)
			total += line.Subtotal
		}

		sale := sales.Sale{
			ID:            saleID,
			TenantID:      in.TenantID,
			OccurredAt:    now,
			Total:         round2(total),
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: in.PaymentMethod.InitialStatus(),
			InvoiceRef:    in.InvoiceRef,
			CreatedAt:     now,
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}
		if err := tx.InsertSaleLines(ctx, saleLines); err != nil {
			return err
		}

		receipt = buildReceipt(sale, saleLines)
		return nil
	})
	if err != nil {
		s.observe(outcomeFor(err), started)
		return Receipt{}, err
	}

	s.observe("committed", started)
	s.recordAudit(ctx, in.TenantID, receipt)
	return receipt, nil
}

// processLine locks, re-validates and decrements a single cart line, and
// returns the snapshotted sale line.
func (s *Service) processLine(ctx context.Context, tx Tx, tenantID, saleID uuid.UUID, cl CartLine) (sales.SaleLine, error) {
	p, err := tx.GetProductForUpdate(ctx, tenantID, cl.ProductID)
	if err != nil {
		return sales.SaleLine{}, err
	}
	if !p.IsActive {
		return sales.SaleLine{}, &ValidationError{Violations: []string{
			fmt.Sprintf("product %q is inactive", p.Name),
		}}
	}
	if err := CheckQuantityKind(p.Kind, cl.Quantity); err != nil {
		return sales.SaleLine{}, err
	}

	if p.Kind == catalog.KindApparel {
		if cl.VariantID == nil {
			return sales.SaleLine{}, &ValidationError{Violations: []string{
				fmt.Sprintf("product %q requires a variant", p.Name),
			}}
		}
		v, err := tx.GetVariantForUpdate(ctx, p.ID, *cl.VariantID)
		if err != nil {
			return sales.SaleLine{}, err
		}
		if v.Stock < cl.Quantity {
			return sales.SaleLine{}, &InsufficientStockError{
				ProductName: p.Name, SKU: p.SKU, VariantLabel: v.Label(),
				Available: v.Stock, Requested: cl.Quantity,
			}
		}
		if err := tx.DecrementVariantStock(ctx, v.ID, cl.Quantity); err != nil {
			return sales.SaleLine{}, err
		}
	} else {
		if cl.VariantID != nil {
			return sales.SaleLine{}, &ValidationError{Violations: []string{
				fmt.Sprintf("product %q does not have variants", p.Name),
			}}
		}
		if p.Stock < cl.Quantity {
			return sales.SaleLine{}, &InsufficientStockError{
				ProductName: p.Name, SKU: p.SKU,
				Available: p.Stock, Requested: cl.Quantity,
			}
		}
		if err := tx.DecrementStock(ctx, p.ID, cl.Quantity); err != nil {
			return sales.SaleLine{}, err
		}
	}

	// Price comes from the locked row, not the register.
	return sales.SaleLine{
		ID:          uuid.New(),
		SaleID:      saleID,
		ProductID:   p.ID,
		VariantID:   cl.VariantID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		Quantity:    cl.Quantity,
		UnitPrice:   p.SalePrice,
		Subtotal:    round2(p.SalePrice * cl.Quantity),
	}, nil
}

func buildReceipt(sale sales.Sale, lines []sales.SaleLine) Receipt {
	r := Receipt{
		SaleID:        sale.ID,
		OccurredAt:    sale.OccurredAt,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		PaymentStatus: sale.PaymentStatus,
		Lines:         make([]ReceiptLine, 0, len(lines)),
	}
	for _, l := range lines {
		r.Lines = append(r.Lines, ReceiptLine{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			ProductSKU:  l.ProductSKU,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return r
}

func canonicalOrder(lines []CartLine) []CartLine {
	sorted := make([]CartLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := bytes.Compare(sorted[i].ProductID[:], sorted[j].ProductID[:]); c != 0 {
			return c < 0
		}
		a, b := variantKey(sorted[i]), variantKey(sorted[j])
		return bytes.Compare(a[:], b[:]) < 0
	})
	return sorted
}

func variantKey(l CartLine) uuid.UUID {
	if l.VariantID == nil {
		return uuid.Nil
	}
	return *l.VariantID
}

func (s *Service) observe(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCheckout(outcome, time.Since(started).Seconds())
}

func (s *Service) recordAudit(ctx context.Context, tenantID uuid.UUID, receipt Receipt) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID.String(),
		Action:   "checkout",
		Entity:   "sale",
		EntityID: receipt.SaleID.String(),
		Meta: map[string]any{
			"total":          receipt.Total,
			"payment_method": string(receipt.PaymentMethod),
			"line_count":     len(receipt.Lines),
		},
	})
	if err != nil {
		// The sale committed; a lost audit row must not fail the checkout.
		s.logger.Warn("audit record failed", slog.Any("error", err), slog.String("sale_id", receipt.SaleID.String()))
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSale):
		return "rejected"
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrLockTimeout):
		return "conflict"
	default:
		return "failed"
	}
}
