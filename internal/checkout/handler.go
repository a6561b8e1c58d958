package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// CheckoutForm is the request payload.
type CheckoutForm struct {
	Lines         []CheckoutLineForm `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod string             `json:"payment_method" validate:"required,oneof=cash card transfer gateway"`
	DeclaredTotal *float64           `json:"declared_total,omitempty"`
	InvoiceRef    *string            `json:"invoice_ref,omitempty"`
}

// CheckoutLineForm is one cart entry.
type CheckoutLineForm struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  float64    `json:"quantity" validate:"required"`
	UnitPrice float64    `json:"unit_price" validate:"gte=0"`
}

// Handler exposes the checkout endpoint.
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

// MountRoutes registers checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	if tc == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var form CheckoutForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	in := CheckoutInput{
		TenantID:      tc.ID,
		PaymentMethod: sales.PaymentMethod(form.PaymentMethod),
		DeclaredTotal: form.DeclaredTotal,
		InvoiceRef:    form.InvoiceRef,
	}
	for _, l := range form.Lines {
		in.Lines = append(in.Lines, CartLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	receipt, err := h.service.Checkout(r.Context(), in)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &vErr):
		httpx.ProblemMeta(w, http.StatusBadRequest, "Validation Failed", "sale rejected", map[string]any{
			"violations": vErr.Violations,
		})
	case errors.As(err, &stockErr):
		httpx.ProblemMeta(w, http.StatusConflict, "Insufficient Stock", stockErr.Error(), stockErr)
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrVariantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusServiceUnavailable, "Busy", "stock rows are contended, retry the sale")
	case errors.Is(err, ErrCommitFailure):
		h.logger.Error("checkout commit", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "sale was not recorded")
	default:
		h.logger.Error("checkout", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
