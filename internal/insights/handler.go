package insights

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Handler exposes the insight feed.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers insight routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/insights", h.List)
	r.Post("/insights/{id}/archive", h.Archive)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	if tc == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	list, err := h.service.ListActive(r.Context(), tc.ID)
	if err != nil {
		h.logger.Error("list insights", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"insights": list})
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	tc := shared.TenantFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if tc == nil || err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid insight id")
		return
	}
	if err := h.service.Archive(r.Context(), tc.ID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("archive insight", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
