package sales

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository reads and transitions the sale ledger. Sales are only created
// by the checkout engine; this side never inserts headers or lines.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Sale, int, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to PaymentStatus, paymentRef *string) error
	SummarizeDay(ctx context.Context, tenantID uuid.UUID, day time.Time) (DaySummary, error)
}

// DaySummary aggregates one calendar day of non-voided sales.
type DaySummary struct {
	Count int
	Total float64
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const saleColumns = `id, tenant_id, occurred_at, total, payment_method, payment_status, payment_ref, invoice_ref, created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.TenantID, &s.OccurredAt, &s.Total, &s.PaymentMethod, &s.PaymentStatus, &s.PaymentRef, &s.InvoiceRef, &s.CreatedAt)
	return s, err
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE tenant_id = $1 AND id = $2`
	s, err := scanSale(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, sale_id, product_id, variant_id, product_name, product_sku, quantity, unit_price, subtotal
		FROM sale_lines WHERE sale_id = $1 ORDER BY product_name`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.VariantID, &l.ProductName, &l.ProductSKU, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return Sale{}, err
		}
		s.Lines = append(s.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]Sale, int, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE tenant_id = $1`
	countQuery := `SELECT COUNT(*) FROM sales WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 1

	clause := ""
	if filters.From != nil {
		argCount++
		clause += ` AND occurred_at >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		argCount++
		clause += ` AND occurred_at < $` + strconv.Itoa(argCount)
		args = append(args, *filters.To)
	}
	if filters.Status != nil {
		argCount++
		clause += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += clause + ` ORDER BY occurred_at DESC`
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

	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpdateStatus performs a compare-and-set transition; the WHERE guard on the
// current status makes concurrent transitions race-safe without a row lock.
func (r *repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to PaymentStatus, paymentRef *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales SET payment_status = $1, payment_ref = COALESCE($2, payment_ref)
		WHERE tenant_id = $3 AND id = $4 AND payment_status = $5`,
		to, paymentRef, tenantID, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *repository) SummarizeDay(ctx context.Context, tenantID uuid.UUID, day time.Time) (DaySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var s DaySummary
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE tenant_id = $1 AND payment_status <> 'voided' AND occurred_at >= $2 AND occurred_at < $3`,
		tenantID, start, end).Scan(&s.Count, &s.Total)
	if err != nil {
		return DaySummary{}, err
	}
	return s, nil
}
