package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/sales"
)

// Tx is the unit-of-work surface the engine drives. Every call happens
// inside one database transaction; locks taken by the ForUpdate reads are
// held until InTx returns.
type Tx interface {
	GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (catalog.Product, error)
	GetVariantForUpdate(ctx context.Context, productID, variantID uuid.UUID) (catalog.Variant, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty float64) error
	DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty float64) error
	InsertSale(ctx context.Context, sale sales.Sale) error
	InsertSaleLines(ctx context.Context, lines []sales.SaleLine) error
}

// Store opens checkout transactions.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

type store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewStore constructs the PostgreSQL-backed Store. lockTimeout bounds row
// lock waits inside each checkout transaction; zero keeps the server default.
func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) Store {
	return &store{pool: pool, lockTimeout: lockTimeout}
}

func (s *store) InTx(ctx context.Context, fn func(Tx) error) error {
	var fnDone bool
	err := db.WithTxLockTimeout(ctx, s.pool, s.lockTimeout, func(tx pgx.Tx) error {
		if err := fn(&pgxTx{tx: tx}); err != nil {
			return err
		}
		fnDone = true
		return nil
	})
	if err != nil && fnDone {
		// fn succeeded, so the failure happened at commit.
		return &CommitError{Err: err}
	}
	return err
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, sku, name, description, kind, sale_price, cost_price, stock, is_active
		FROM products WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`, tenantID, productID).
		Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Kind, &p.SalePrice, &p.CostPrice, &p.Stock, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		if isLockTimeout(err) {
			return catalog.Product{}, ErrLockTimeout
		}
		return catalog.Product{}, fmt.Errorf("lock product %s: %w", productID, err)
	}
	return p, nil
}

func (t *pgxTx) GetVariantForUpdate(ctx context.Context, productID, variantID uuid.UUID) (catalog.Variant, error) {
	var v catalog.Variant
	err := t.tx.QueryRow(ctx, `
		SELECT id, product_id, size, color, stock
		FROM product_variants WHERE product_id = $1 AND id = $2
		FOR UPDATE`, productID, variantID).
		Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Variant{}, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
		}
		if isLockTimeout(err) {
			return catalog.Variant{}, ErrLockTimeout
		}
		return catalog.Variant{}, fmt.Errorf("lock variant %s: %w", variantID, err)
	}
	return v, nil
}

func (t *pgxTx) DecrementStock(ctx context.Context, productID uuid.UUID, qty float64) error {
	// The stock >= qty guard backs up the in-engine check; a zero-row update
	// here means something raced us despite the lock, so fail loudly.
	tag, err := t.tx.Exec(ctx, `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`, qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	}
	return nil
}

func (t *pgxTx) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE product_variants SET stock = stock - $1 WHERE id = $2 AND stock >= $1`, qty, variantID)
	if err != nil {
		return fmt.Errorf("decrement variant stock %s: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, variantID)
	}
	return nil
}

func (t *pgxTx) InsertSale(ctx context.Context, sale sales.Sale) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO sales (id, tenant_id, occurred_at, total, payment_method, payment_status, payment_ref, invoice_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.TenantID, sale.OccurredAt, sale.Total, sale.PaymentMethod, sale.PaymentStatus, sale.PaymentRef, sale.InvoiceRef, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (t *pgxTx) InsertSaleLines(ctx context.Context, lines []sales.SaleLine) error {
	for _, line := range lines {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO sale_lines (id, sale_id, product_id, variant_id, product_name, product_sku, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			line.ID, line.SaleID, line.ProductID, line.VariantID, line.ProductName, line.ProductSKU, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}

// 55P03 is lock_not_available, raised when SET LOCAL lock_timeout expires.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
