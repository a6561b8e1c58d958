package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository loads tenants for request resolution and background fan-out.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
	ListActive(ctx context.Context) ([]Tenant, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	const query = `SELECT id, name, business_kind, api_key_hash, is_active, created_at FROM tenants WHERE id = $1`
	var t Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.BusinessKind, &t.APIKeyHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, shared.ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, business_kind, api_key_hash, is_active, created_at FROM tenants WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.BusinessKind, &t.APIKeyHash, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}
