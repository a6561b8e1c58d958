package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// GatewayAPI is the slice of the gateway client the service needs.
type GatewayAPI interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	GetPayment(ctx context.Context, id string) (Payment, error)
}

// SaleLedger is the slice of the sales service the service needs.
type SaleLedger interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (sales.Sale, error)
	MarkPaid(ctx context.Context, tenantID, id uuid.UUID, paymentRef *string) error
	ApplyGatewayRefund(ctx context.Context, tenantID, id uuid.UUID) error
}

// IdempotencyKeys dedupes webhook deliveries.
type IdempotencyKeys interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "payments"

// ErrNotCollectable indicates the sale cannot go to the gateway.
var ErrNotCollectable = errors.New("payments: sale is not pending gateway collection")

// Service drives gateway payments end to end.
type Service struct {
	gateway GatewayAPI
	ledger  SaleLedger
	idem    IdempotencyKeys
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(gateway GatewayAPI, ledger SaleLedger, idem IdempotencyKeys, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, ledger: ledger, idem: idem, logger: logger}
}

// CreateIntent hands a pending gateway sale to the provider.
func (s *Service) CreateIntent(ctx context.Context, tenantID, saleID uuid.UUID) (Intent, error) {
	sale, err := s.ledger.Get(ctx, tenantID, saleID)
	if err != nil {
		return Intent{}, fmt.Errorf("get sale %s: %w", saleID, err)
	}
	if sale.PaymentMethod != sales.PaymentGateway || sale.PaymentStatus != sales.StatusPending {
		return Intent{}, ErrNotCollectable
	}
	return s.gateway.CreateIntent(ctx, IntentRequest{
		TenantID: tenantID,
		SaleID:   saleID,
		Amount:   sale.Total,
	})
}

// ProcessEvent applies one webhook delivery. Deliveries are at-least-once;
// the idempotency key makes replays no-ops. The payment state is fetched
// from the gateway, never trusted from the webhook body.
func (s *Service) ProcessEvent(ctx context.Context, eventID, paymentID string) error {
	if err := s.idem.CheckAndInsert(ctx, eventID, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			s.logger.Debug("webhook replay ignored", slog.String("event_id", eventID))
			return nil
		}
		return err
	}

	if err := s.applyEvent(ctx, paymentID); err != nil {
		// Release the key so the gateway's retry can try again.
		if delErr := s.idem.Delete(ctx, eventID); delErr != nil {
			s.logger.Error("release webhook key", slog.Any("error", delErr), slog.String("event_id", eventID))
		}
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, paymentID string) error {
	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	switch p.Status {
	case GatewayApproved:
		ref := p.ID
		err := s.ledger.MarkPaid(ctx, p.TenantID, p.SaleID, &ref)
		if err != nil && errors.Is(err, sales.ErrInvalidTransition) {
			// Already paid via an earlier delivery; nothing to do.
			return nil
		}
		return err
	case GatewayRefunded, GatewayCanceled:
		err := s.ledger.ApplyGatewayRefund(ctx, p.TenantID, p.SaleID)
		if err != nil && errors.Is(err, sales.ErrInvalidTransition) {
			return nil
		}
		return err
	case GatewayPending, GatewayRejected:
		// Rejected payments leave the sale pending; the register retries or
		// voids it.
		return nil
	default:
		s.logger.Warn("unknown gateway status", slog.String("payment_id", p.ID), slog.String("status", p.Status))
		return nil
	}
}
