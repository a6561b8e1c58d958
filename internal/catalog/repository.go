package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository persists catalog data in PostgreSQL.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error)
	GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (Product, error)
	List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Product, int, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) error
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error
	AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta float64) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []Variant) error
	AdjustVariantStock(ctx context.Context, productID, variantID uuid.UUID, delta float64) error
	ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold float64) ([]Product, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, tenant_id, sku, name, description, kind, sale_price, cost_price, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Kind, &p.SalePrice, &p.CostPrice, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	p, err := scanProduct(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	if err := r.loadVariants(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *repository) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND sku = $2`
	p, err := scanProduct(r.db.QueryRow(ctx, query, tenantID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	if err := r.loadVariants(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *repository) loadVariants(ctx context.Context, p *Product) error {
	if p.Kind != KindApparel {
		return nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, product_id, size, color, stock FROM product_variants WHERE product_id = $1 ORDER BY size, color`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1`
	countQuery := `SELECT COUNT(*) FROM products WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 1

	clause := ""
	if filters.Search != "" {
		argCount++
		clause += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Kind != nil {
		argCount++
		clause += ` AND kind = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Kind)
	}
	if filters.IsActive != nil {
		argCount++
		clause += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += clause + ` ORDER BY name`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range products {
		if err := r.loadVariants(ctx, &products[i]); err != nil {
			return nil, 0, err
		}
	}
	return products, total, nil
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO products (id, tenant_id, sku, name, description, kind, sale_price, cost_price, stock, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.db.Exec(ctx, query, p.ID, p.TenantID, p.SKU, p.Name, p.Description, p.Kind, p.SalePrice, p.CostPrice, p.Stock, p.IsActive, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if len(p.Variants) > 0 {
		if err := r.ReplaceVariants(ctx, p.ID, p.Variants); err != nil {
			return Product{}, err
		}
		fresh, err := r.Get(ctx, p.TenantID, p.ID)
		if err != nil {
			return Product{}, err
		}
		return fresh, nil
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	query := `UPDATE products SET sku = $1, name = $2, description = $3, sale_price = $4, cost_price = $5, updated_at = NOW()
	          WHERE tenant_id = $6 AND id = $7`
	tag, err := r.db.Exec(ctx, query, p.SKU, p.Name, p.Description, p.SalePrice, p.CostPrice, p.TenantID, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`, active, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AdjustStock applies a manual correction to the scalar stock. It does not
// take the checkout row lock; administrative corrections are allowed to race
// with checkout.
func (r *repository) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`, delta, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []Variant) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, v := range variants {
		id := v.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := r.db.Exec(ctx, `INSERT INTO product_variants (id, product_id, size, color, stock) VALUES ($1, $2, $3, $4, $5)`, id, productID, v.Size, v.Color, v.Stock)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) AdjustVariantStock(ctx context.Context, productID, variantID uuid.UUID, delta float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE product_variants SET stock = stock + $1 WHERE product_id = $2 AND id = $3`, delta, productID, variantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListLowStock returns active products whose sellable stock is at or below
// the threshold. Apparel aggregates are derived from variants, never read
// from the product row.
func (r *repository) ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold float64) ([]Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM products p
		WHERE p.tenant_id = $1 AND p.is_active = TRUE AND (
			(p.kind <> 'apparel' AND p.stock <= $2) OR
			(p.kind = 'apparel' AND COALESCE((SELECT SUM(v.stock) FROM product_variants v WHERE v.product_id = p.id), 0) <= $2)
		)
		ORDER BY p.name`
	rows, err := r.db.Query(ctx, query, tenantID, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range products {
		if err := r.loadVariants(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
