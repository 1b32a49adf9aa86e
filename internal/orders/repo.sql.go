package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltara-ev/voltara/internal/platform/db"
	"github.com/voltara-ev/voltara/internal/shared"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same query code serves pooled reads and transactional writes.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TxRepository exposes the operations that must share one transaction: the
// ledger lock, the availability counts and the line insert on creation, and
// the read-modify-write cycle on update and delete.
type TxRepository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GenerateOrderNumber(ctx context.Context, now time.Time) (string, error)
	InsertOrder(ctx context.Context, o Order) error

	LockVariantLedger(ctx context.Context, variantID uuid.UUID) error
	CountAvailable(ctx context.Context, variantID, colorID uuid.UUID) (int64, error)
	SumPendingQuantity(ctx context.Context, variantID uuid.UUID) (int64, error)

	InsertLine(ctx context.Context, line OrderLine) error
	GetLineForUpdate(ctx context.Context, id uuid.UUID) (*OrderLine, error)
	UpdateLine(ctx context.Context, line OrderLine) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
}

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return shared.Internal("orders: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return shared.Internal("orders: commit tx", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return getOrder(ctx, r.pool, id)
}

func (r *Repository) ListOrders(ctx context.Context, dealerID *uuid.UUID) ([]Order, error) {
	query := `SELECT id, dealer_id, order_number, status, payment_terms_days, delivery_terms, notes, created_at, updated_at
FROM orders`
	args := []any{}
	if dealerID != nil {
		query += ` WHERE dealer_id=$1`
		args = append(args, *dealerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.DealerID, &o.OrderNumber, &o.Status, &o.PaymentTermsDays,
			&o.DeliveryTerms, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) GetLine(ctx context.Context, id uuid.UUID) (*OrderLine, error) {
	row := r.pool.QueryRow(ctx, lineSelect+` WHERE id=$1`, id)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order line %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return line, nil
}

func (r *Repository) ListLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	return listLines(ctx, r.pool, orderID)
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return getOrder(ctx, t.tx, id)
}

// GenerateOrderNumber allocates the next ORD-YYMM-#### number. The upsert on
// document_sequences serializes allocation per period.
func (t *txRepo) GenerateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	period := now.Format("0601")
	var seq int64
	err := t.tx.QueryRow(ctx, `INSERT INTO document_sequences (doc_type, period, seq)
VALUES ('ORD', $1, 1)
ON CONFLICT (doc_type, period) DO UPDATE SET seq = document_sequences.seq + 1
RETURNING seq`, period).Scan(&seq)
	if err != nil {
		return "", shared.Internal("orders: next sequence", err)
	}
	return fmt.Sprintf("ORD-%s-%04d", period, seq), nil
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO orders (id, dealer_id, order_number, status, payment_terms_days, delivery_terms, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		o.ID, o.DealerID, o.OrderNumber, o.Status, o.PaymentTermsDays, o.DeliveryTerms, o.Notes, o.CreatedAt)
	if err != nil {
		return mapOrderWriteErr("insert order", err)
	}
	return nil
}

// LockVariantLedger takes the per-variant row lock that serializes concurrent
// admission checks. The upsert creates the ledger row on first use and always
// leaves the transaction holding its lock.
func (t *txRepo) LockVariantLedger(ctx context.Context, variantID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO variant_reservations (variant_id, updated_at)
VALUES ($1, NOW())
ON CONFLICT (variant_id) DO UPDATE SET updated_at = NOW()`, variantID)
	if err != nil {
		return shared.Internal("orders: lock variant ledger", err)
	}
	return nil
}

func (t *txRepo) CountAvailable(ctx context.Context, variantID, colorID uuid.UUID) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM vehicle_units
WHERE variant_id=$1 AND color_id=$2 AND status='AVAILABLE'`, variantID, colorID).Scan(&n)
	return n, err
}

func (t *txRepo) SumPendingQuantity(ctx context.Context, variantID uuid.UUID) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM order_lines
WHERE variant_id=$1 AND status IN ('PENDING','CONFIRMED')`, variantID).Scan(&n)
	return n, err
}

func (t *txRepo) InsertLine(ctx context.Context, line OrderLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO order_lines (id, order_id, variant_id, color_id, quantity, unit_price, discount_percentage, total_price, discount_amount, final_price, status, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)`,
		line.ID, line.OrderID, line.VariantID, line.ColorID, line.Quantity,
		db.NumericFromNullableDecimal(line.UnitPrice), db.NumericFromNullableDecimal(line.DiscountPercentage),
		db.NumericFromDecimal(line.TotalPrice), db.NumericFromDecimal(line.DiscountAmount), db.NumericFromDecimal(line.FinalPrice),
		line.Status, line.Notes, line.CreatedAt)
	if err != nil {
		return mapOrderWriteErr("insert line", err)
	}
	return nil
}

func (t *txRepo) GetLineForUpdate(ctx context.Context, id uuid.UUID) (*OrderLine, error) {
	row := t.tx.QueryRow(ctx, lineSelect+` WHERE id=$1 FOR UPDATE`, id)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order line %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return line, nil
}

func (t *txRepo) UpdateLine(ctx context.Context, line OrderLine) error {
	tag, err := t.tx.Exec(ctx, `UPDATE order_lines
SET quantity=$2, unit_price=$3, discount_percentage=$4, total_price=$5, discount_amount=$6, final_price=$7, notes=$8, updated_at=NOW()
WHERE id=$1`,
		line.ID, line.Quantity,
		db.NumericFromNullableDecimal(line.UnitPrice), db.NumericFromNullableDecimal(line.DiscountPercentage),
		db.NumericFromDecimal(line.TotalPrice), db.NumericFromDecimal(line.DiscountAmount), db.NumericFromDecimal(line.FinalPrice),
		line.Notes)
	if err != nil {
		return mapOrderWriteErr("update line", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order line %s: %w", line.ID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) DeleteLine(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM order_lines WHERE id=$1`, id)
	if err != nil {
		return shared.Internal("orders: delete line", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order line %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

const lineSelect = `SELECT id, order_id, variant_id, color_id, quantity, unit_price, discount_percentage, total_price, discount_amount, final_price, status, notes, created_at, updated_at
FROM order_lines`

func getOrder(ctx context.Context, q querier, id uuid.UUID) (*Order, error) {
	var o Order
	err := q.QueryRow(ctx, `SELECT id, dealer_id, order_number, status, payment_terms_days, delivery_terms, notes, created_at, updated_at
FROM orders WHERE id=$1`, id).Scan(&o.ID, &o.DealerID, &o.OrderNumber, &o.Status, &o.PaymentTermsDays,
		&o.DeliveryTerms, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &o, nil
}

func listLines(ctx context.Context, q querier, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.Query(ctx, lineSelect+` WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []OrderLine{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row) (*OrderLine, error) {
	var (
		line           OrderLine
		unitPrice      pgtype.Numeric
		discountPct    pgtype.Numeric
		totalPrice     pgtype.Numeric
		discountAmount pgtype.Numeric
		finalPrice     pgtype.Numeric
	)
	if err := row.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.ColorID, &line.Quantity,
		&unitPrice, &discountPct, &totalPrice, &discountAmount, &finalPrice,
		&line.Status, &line.Notes, &line.CreatedAt, &line.UpdatedAt); err != nil {
		return nil, err
	}
	line.UnitPrice = db.NullableDecimal(unitPrice)
	line.DiscountPercentage = db.NullableDecimal(discountPct)
	line.TotalPrice = db.DecimalFromNumeric(totalPrice)
	line.DiscountAmount = db.DecimalFromNumeric(discountAmount)
	line.FinalPrice = db.DecimalFromNumeric(finalPrice)
	return &line, nil
}

func mapOrderWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, shared.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
