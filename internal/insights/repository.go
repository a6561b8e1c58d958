package insights

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository persists insights.
type Repository interface {
	Create(ctx context.Context, in Insight) error
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]Insight, error)
	ListActiveByKind(ctx context.Context, tenantID uuid.UUID, kind InsightKind) ([]Insight, error)
	Archive(ctx context.Context, tenantID, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, in Insight) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	meta, err := json.Marshal(in.Meta)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO insights (id, tenant_id, kind, message, urgency, is_active, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, NOW())`,
		in.ID, in.TenantID, in.Kind, in.Message, in.Urgency, meta)
	return err
}

func (r *repository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]Insight, error) {
	return r.list(ctx, `SELECT id, tenant_id, kind, message, urgency, is_active, meta, created_at
		FROM insights WHERE tenant_id = $1 AND is_active = TRUE ORDER BY created_at DESC`, tenantID)
}

func (r *repository) ListActiveByKind(ctx context.Context, tenantID uuid.UUID, kind InsightKind) ([]Insight, error) {
	return r.list(ctx, `SELECT id, tenant_id, kind, message, urgency, is_active, meta, created_at
		FROM insights WHERE tenant_id = $1 AND is_active = TRUE AND kind = $2 ORDER BY created_at DESC`, tenantID, kind)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Insight, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Insight
	for rows.Next() {
		var in Insight
		var meta []byte
		if err := rows.Scan(&in.ID, &in.TenantID, &in.Kind, &in.Message, &in.Urgency, &in.IsActive, &meta, &in.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &in.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *repository) Archive(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE insights SET is_active = FALSE WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
