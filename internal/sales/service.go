package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// AuditRecorder records payment-status transitions. Nil disables auditing.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the sale ledger: listing, lookup and the payment-status state
// machine. Stock never moves here; voiding a sale does not restock (manual
// adjustment exists for that).
type Service struct {
	repo  Repository
	audit AuditRecorder
}

// NewService builds Service.
func NewService(repo Repository, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Sale, int, error) {
	return s.repo.List(ctx, tenantID, filters)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Sale, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// MarkPaid transitions pending -> paid, recording the gateway/terminal
// reference when one exists.
func (s *Service) MarkPaid(ctx context.Context, tenantID, id uuid.UUID, paymentRef *string) error {
	if err := s.repo.UpdateStatus(ctx, tenantID, id, StatusPending, StatusPaid, paymentRef); err != nil {
		return fmt.Errorf("mark paid %s: %w", id, err)
	}
	s.recordAudit(ctx, tenantID, id, "sale_paid", map[string]any{"payment_ref": deref(paymentRef)})
	return nil
}

// Void transitions pending or paid -> voided. Gateway-paid sales are
// rejected here: the money is with the gateway, so the refund has to go
// through it before the ledger can be voided.
func (s *Service) Void(ctx context.Context, tenantID, id uuid.UUID) error {
	sale, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("get sale %s: %w", id, err)
	}
	if sale.PaymentStatus == StatusVoided {
		return ErrInvalidTransition
	}
	if sale.PaymentStatus == StatusPaid && sale.PaymentMethod == PaymentGateway {
		return ErrGatewayVoid
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, sale.PaymentStatus, StatusVoided, nil); err != nil {
		return fmt.Errorf("void sale %s: %w", id, err)
	}
	s.recordAudit(ctx, tenantID, id, "sale_voided", map[string]any{"was": string(sale.PaymentStatus)})
	return nil
}

// ApplyGatewayRefund voids a gateway-paid sale after the gateway confirmed
// the money went back. This is the one path Void refuses by policy.
func (s *Service) ApplyGatewayRefund(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, tenantID, id, StatusPaid, StatusVoided, nil); err != nil {
		return fmt.Errorf("refund void %s: %w", id, err)
	}
	s.recordAudit(ctx, tenantID, id, "sale_refunded", nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, tenantID, id uuid.UUID, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID.String(),
		Action:   action,
		Entity:   "sale",
		EntityID: id.String(),
		Meta:     meta,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
