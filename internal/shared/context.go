package shared

import (
	"context"

	"github.com/google/uuid"
)

// TenantContext carries the store identity resolved for the current request.
// Every query and mutation downstream is scoped by TenantContext.ID.
type TenantContext struct {
	ID           uuid.UUID
	Name         string
	BusinessKind string
}

type tenantContextKey struct{}

// ContextWithTenant stores the tenant in context.
func ContextWithTenant(ctx context.Context, t *TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// TenantFromContext extracts the tenant from context.
func TenantFromContext(ctx context.Context) *TenantContext {
	t, _ := ctx.Value(tenantContextKey{}).(*TenantContext)
	return t
}
