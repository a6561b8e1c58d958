package tenant

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memoryTenantRepo struct {
	tenants map[uuid.UUID]Tenant
}

func (r *memoryTenantRepo) Get(_ context.Context, id uuid.UUID) (Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *memoryTenantRepo) ListActive(_ context.Context) ([]Tenant, error) {
	var out []Tenant
	for _, t := range r.tenants {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestMiddleware(t *testing.T, active bool) (Middleware, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &memoryTenantRepo{tenants: map[uuid.UUID]Tenant{
		id: {ID: id, Name: "Corner Shop", BusinessKind: "retail", APIKeyHash: string(hash), IsActive: active},
	}}
	return Middleware{Repo: repo, Logger: slog.Default()}, id
}

func TestMiddlewareResolvesActiveTenant(t *testing.T) {
	mw, id := newTestMiddleware(t, true)

	var resolved *shared.TenantContext
	handler := mw.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = shared.TenantFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(HeaderAPIKey, id.String()+".super-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, resolved)
	require.Equal(t, id, resolved.ID)
	require.Equal(t, "Corner Shop", resolved.Name)
}

func TestMiddlewareRejectsBadCredentials(t *testing.T) {
	mw, id := newTestMiddleware(t, true)

	cases := []struct {
		name string
		key  string
		want int
	}{
		{name: "missing key", key: "", want: http.StatusUnauthorized},
		{name: "malformed key", key: "not-a-key", want: http.StatusUnauthorized},
		{name: "unknown tenant", key: uuid.NewString() + ".super-secret", want: http.StatusUnauthorized},
		{name: "wrong secret", key: id.String() + ".guess", want: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := mw.Resolve(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			if tc.key != "" {
				req.Header.Set(HeaderAPIKey, tc.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMiddlewareRejectsInactiveTenant(t *testing.T) {
	mw, id := newTestMiddleware(t, false)

	handler := mw.Resolve(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(HeaderAPIKey, id.String()+".super-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
