package payments

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// WebhookForm is the gateway's delivery payload. Only ids; state is fetched.
type WebhookForm struct {
	EventID   string `json:"event_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
}

// Handler exposes intent creation (tenant-authed) and the webhook (called by
// the gateway, mounted outside the tenant middleware).
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers the tenant-facing route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sales/{id}/payment-intent", h.CreateIntent)
}

// MountWebhook registers the gateway-facing route.
func (h *Handler) MountWebhook(r chi.Router) {
	r.Post("/webhooks/payments", h.Webhook)
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	saleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sale id")
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), tc.ID, saleID)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrNotCollectable):
			httpx.Problem(w, http.StatusConflict, "Not Collectable", err.Error())
		default:
			h.logger.Error("create payment intent", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Gateway Error", "payment gateway unavailable")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, intent)
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var form WebhookForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.ProcessEvent(r.Context(), form.EventID, form.PaymentID); err != nil {
		// Non-2xx makes the gateway redeliver.
		h.logger.Error("process webhook", slog.Any("error", err), slog.String("event_id", form.EventID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusOK)
}
