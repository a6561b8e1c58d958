package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Handler wires catalog HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	scanner  *ScanService
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, scanner *ScanService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		scanner:  scanner,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{id}", h.Show)
	r.Put("/products/{id}", h.Update)
	r.Post("/products/{id}/deactivate", h.Deactivate)
	r.Post("/products/{id}/activate", h.Activate)
	r.Post("/products/{id}/stock", h.AdjustStock)
	r.Get("/scan/{code}", h.Scan)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	if tc == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	filters := ListFilters{
		Search:  r.URL.Query().Get("q"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 50),
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := Kind(kind)
		if !k.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown product kind")
			return
		}
		filters.Kind = &k
	}
	if active := r.URL.Query().Get("active"); active != "" {
		v := active == "true" || active == "1"
		filters.IsActive = &v
	}

	products, total, err := h.service.List(r.Context(), tc.ID, filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	for i := range products {
		products[i].Stock = products[i].AvailableStock()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	p, err := h.service.Get(r.Context(), tc.ID, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	p.Stock = p.AvailableStock()
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	if tc == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var form ProductForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.service.Create(r.Context(), productFromForm(tc.ID, uuid.Nil, form))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.scanner.Invalidate(r.Context(), tc.ID, p.SKU)
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var form ProductForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.Update(r.Context(), productFromForm(tc.ID, id, form)); err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.scanner.Invalidate(r.Context(), tc.ID, form.SKU)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	tc := shared.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var opErr error
	if active {
		opErr = h.service.Activate(r.Context(), tc.ID, id)
	} else {
		opErr = h.service.Deactivate(r.Context(), tc.ID, id)
	}
	if opErr != nil {
		h.respondServiceError(w, opErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	var form AdjustStockForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed json body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AdjustStock(r.Context(), tc.ID, id, form.VariantID, form.Delta); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	code := chi.URLParam(r, "code")
	if tc == nil || code == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "scan code required")
		return
	}
	result, err := h.scanner.Scan(r.Context(), tc.ID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, ErrProductInactive) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found or inactive")
			return
		}
		h.logger.Error("scan product", slog.Any("error", err), slog.String("code", code))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateSKU):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrVariantsForbidden):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("catalog service", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func productFromForm(tenantID, id uuid.UUID, form ProductForm) Product {
	p := Product{
		ID:          id,
		TenantID:    tenantID,
		SKU:         form.SKU,
		Name:        form.Name,
		Description: form.Description,
		Kind:        Kind(form.Kind),
		SalePrice:   form.SalePrice,
		CostPrice:   form.CostPrice,
		Stock:       form.Stock,
	}
	for _, v := range form.Variants {
		variant := Variant{Size: v.Size, Color: v.Color, Stock: v.Stock}
		if v.ID != nil {
			variant.ID = *v.ID
		}
		p.Variants = append(p.Variants, variant)
	}
	return p
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
