package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// HeaderAPIKey carries the store credential: "<tenant-id>.<secret>".
const HeaderAPIKey = "X-API-Key"

// Middleware resolves the tenant for each request from its API key and
// injects it into the request context. Authentication beyond the key lookup
// lives upstream and is out of scope here.
type Middleware struct {
	Repo   Repository
	Logger *slog.Logger
}

// Resolve rejects requests without a valid key for an active tenant.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderAPIKey)
		id, secret, ok := splitKey(key)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		t, err := m.Repo.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			m.Logger.Error("resolve tenant", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !t.IsActive {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(t.APIKeyHash), []byte(secret)) != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		ctx := shared.ContextWithTenant(r.Context(), &shared.TenantContext{
			ID:           t.ID,
			Name:         t.Name,
			BusinessKind: t.BusinessKind,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func splitKey(key string) (uuid.UUID, string, bool) {
	idPart, secret, found := strings.Cut(key, ".")
	if !found || secret == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}
