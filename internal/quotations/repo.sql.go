package quotations

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
	"github.com/shopspring/decimal"

	"github.com/voltara-ev/voltara/internal/invoices"
	"github.com/voltara-ev/voltara/internal/platform/db"
	"github.com/voltara-ev/voltara/internal/shared"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TxRepository exposes the operations that share one transaction: generation
// reads the order and its lines under one snapshot and writes the quotation
// atomically; acceptance flips status and cuts the invoice as one unit.
type TxRepository interface {
	GetOrderTerms(ctx context.Context, orderID uuid.UUID) (*OrderTerms, error)
	GetDealerPaymentTerms(ctx context.Context, dealerID uuid.UUID) (int, error)
	ExistsActiveForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLineSnapshot, error)
	GetVariantBasePrice(ctx context.Context, variantID uuid.UUID) (*decimal.Decimal, error)

	GenerateQuotationNumber(ctx context.Context, now time.Time) (string, error)
	InsertQuotation(ctx context.Context, q Quotation) error
	InsertLine(ctx context.Context, line QuotationLine) error

	GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error)
	SetStatus(ctx context.Context, id uuid.UUID, status QuotationStatus) error
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRejected(ctx context.Context, id uuid.UUID, at time.Time, reason string) error
	UpdateDetails(ctx context.Context, q Quotation) error
	DeleteQuotation(ctx context.Context, id uuid.UUID) error

	GenerateInvoiceNumber(ctx context.Context, now time.Time) (string, error)
	InsertInvoice(ctx context.Context, inv invoices.Invoice) error
}

// Repository provides PostgreSQL backed persistence for quotations.
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
		return shared.Internal("quotations: begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return shared.Internal("quotations: commit tx", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return getQuotation(ctx, r.pool, id, false)
}

func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx, quotationSelect+` WHERE source_order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *Repository) ListLines(ctx context.Context, quotationID uuid.UUID) ([]QuotationLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quotation_id, variant_id, color_id, quantity, unit_price, discount_percentage, total_price, discount_amount, final_price, created_at
FROM quotation_lines WHERE quotation_id=$1 ORDER BY created_at, id`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []QuotationLine{}
	for rows.Next() {
		var (
			line           QuotationLine
			unitPrice      pgtype.Numeric
			discountPct    pgtype.Numeric
			totalPrice     pgtype.Numeric
			discountAmount pgtype.Numeric
			finalPrice     pgtype.Numeric
		)
		if err := rows.Scan(&line.ID, &line.QuotationID, &line.VariantID, &line.ColorID, &line.Quantity,
			&unitPrice, &discountPct, &totalPrice, &discountAmount, &finalPrice, &line.CreatedAt); err != nil {
			return nil, err
		}
		line.UnitPrice = db.DecimalFromNumeric(unitPrice)
		line.DiscountPercentage = db.NullableDecimal(discountPct)
		line.TotalPrice = db.DecimalFromNumeric(totalPrice)
		line.DiscountAmount = db.DecimalFromNumeric(discountAmount)
		line.FinalPrice = db.DecimalFromNumeric(finalPrice)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ExpireOverdue flips SENT quotations whose expiry date has passed to
// EXPIRED. It reports how many it flipped.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE quotations SET status='EXPIRED', updated_at=NOW()
WHERE status='SENT' AND expiry_date < $1`, now)
	if err != nil {
		return 0, shared.Internal("quotations: expire overdue", err)
	}
	return tag.RowsAffected(), nil
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) GetOrderTerms(ctx context.Context, orderID uuid.UUID) (*OrderTerms, error) {
	var terms OrderTerms
	err := t.tx.QueryRow(ctx, `SELECT dealer_id, payment_terms_days, delivery_terms FROM orders WHERE id=$1`, orderID).
		Scan(&terms.DealerID, &terms.PaymentTermsDays, &terms.DeliveryTerms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, shared.ErrNotFound)
		}
		return nil, err
	}
	return &terms, nil
}

func (t *txRepo) GetDealerPaymentTerms(ctx context.Context, dealerID uuid.UUID) (int, error) {
	var days int
	err := t.tx.QueryRow(ctx, `SELECT payment_terms_days FROM dealers WHERE id=$1`, dealerID).Scan(&days)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("dealer %s referenced by order is missing: %w", dealerID, shared.ErrNotFound)
		}
		return 0, err
	}
	return days, nil
}

func (t *txRepo) ExistsActiveForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (
    SELECT 1 FROM quotations WHERE source_order_id=$1 AND status IN ('PENDING','SENT')
)`, orderID).Scan(&exists)
	return exists, err
}

func (t *txRepo) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLineSnapshot, error) {
	rows, err := t.tx.Query(ctx, `SELECT variant_id, color_id, quantity, unit_price, discount_percentage
FROM order_lines WHERE order_id=$1 AND status <> 'CANCELLED' ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []OrderLineSnapshot{}
	for rows.Next() {
		var (
			line        OrderLineSnapshot
			unitPrice   pgtype.Numeric
			discountPct pgtype.Numeric
		)
		if err := rows.Scan(&line.VariantID, &line.ColorID, &line.Quantity, &unitPrice, &discountPct); err != nil {
			return nil, err
		}
		line.UnitPrice = db.NullableDecimal(unitPrice)
		line.DiscountPercentage = db.NullableDecimal(discountPct)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (t *txRepo) GetVariantBasePrice(ctx context.Context, variantID uuid.UUID) (*decimal.Decimal, error) {
	var basePrice pgtype.Numeric
	err := t.tx.QueryRow(ctx, `SELECT base_price FROM vehicle_variants WHERE id=$1`, variantID).Scan(&basePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variant %s: %w", variantID, shared.ErrNotFound)
		}
		return nil, err
	}
	return db.NullableDecimal(basePrice), nil
}

// GenerateQuotationNumber allocates the next DQ-YYMM-#### number.
func (t *txRepo) GenerateQuotationNumber(ctx context.Context, now time.Time) (string, error) {
	return nextDocumentNumber(ctx, t.tx, "DQ", now)
}

// GenerateInvoiceNumber allocates the next INV-YYMM-#### number.
func (t *txRepo) GenerateInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	return nextDocumentNumber(ctx, t.tx, "INV", now)
}

func nextDocumentNumber(ctx context.Context, q querier, docType string, now time.Time) (string, error) {
	period := now.Format("0601")
	var seq int64
	err := q.QueryRow(ctx, `INSERT INTO document_sequences (doc_type, period, seq)
VALUES ($1, $2, 1)
ON CONFLICT (doc_type, period) DO UPDATE SET seq = document_sequences.seq + 1
RETURNING seq`, docType, period).Scan(&seq)
	if err != nil {
		return "", shared.Internal("quotations: next sequence", err)
	}
	return fmt.Sprintf("%s-%s-%04d", docType, period, seq), nil
}

func (t *txRepo) InsertQuotation(ctx context.Context, q Quotation) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO quotations (id, source_order_id, quotation_number, status, subtotal, discount_percentage, discount_amount, total_amount, validity_days, quotation_date, expiry_date, payment_terms_days, delivery_terms, staff_id, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)`,
		q.ID, q.SourceOrderID, q.QuotationNumber, q.Status,
		db.NumericFromDecimal(q.Subtotal), db.NumericFromNullableDecimal(q.DiscountPercentage),
		db.NumericFromDecimal(q.DiscountAmount), db.NumericFromDecimal(q.TotalAmount),
		q.ValidityDays, q.QuotationDate, q.ExpiryDate, q.PaymentTermsDays, q.DeliveryTerms, q.StaffID, q.Notes, q.CreatedAt)
	if err != nil {
		return mapQuotationWriteErr("insert quotation", err)
	}
	return nil
}

func (t *txRepo) InsertLine(ctx context.Context, line QuotationLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO quotation_lines (id, quotation_id, variant_id, color_id, quantity, unit_price, discount_percentage, total_price, discount_amount, final_price, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		line.ID, line.QuotationID, line.VariantID, line.ColorID, line.Quantity,
		db.NumericFromDecimal(line.UnitPrice), db.NumericFromNullableDecimal(line.DiscountPercentage),
		db.NumericFromDecimal(line.TotalPrice), db.NumericFromDecimal(line.DiscountAmount), db.NumericFromDecimal(line.FinalPrice),
		line.CreatedAt)
	if err != nil {
		return mapQuotationWriteErr("insert quotation line", err)
	}
	return nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return getQuotation(ctx, t.tx, id, true)
}

func (t *txRepo) SetStatus(ctx context.Context, id uuid.UUID, status QuotationStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quotations SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return shared.Internal("quotations: set status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quotations SET status='ACCEPTED', accepted_at=$2, updated_at=NOW() WHERE id=$1`, id, at)
	if err != nil {
		return shared.Internal("quotations: mark accepted", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) MarkRejected(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quotations SET status='REJECTED', rejected_at=$2, rejection_reason=$3, updated_at=NOW() WHERE id=$1`, id, at, reason)
	if err != nil {
		return shared.Internal("quotations: mark rejected", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) UpdateDetails(ctx context.Context, q Quotation) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quotations SET validity_days=$2, expiry_date=$3, delivery_terms=$4, notes=$5, updated_at=NOW() WHERE id=$1`,
		q.ID, q.ValidityDays, q.ExpiryDate, q.DeliveryTerms, q.Notes)
	if err != nil {
		return shared.Internal("quotations: update details", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", q.ID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) DeleteQuotation(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id=$1`, id); err != nil {
		return shared.Internal("quotations: delete lines", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM quotations WHERE id=$1`, id)
	if err != nil {
		return shared.Internal("quotations: delete quotation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv invoices.Invoice) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO invoices (id, invoice_number, source_order_id, source_quotation_id, subtotal, tax_amount, discount_amount, total_amount, invoice_date, due_date, payment_terms_days, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		inv.ID, inv.InvoiceNumber, inv.SourceOrderID, inv.SourceQuotationID,
		db.NumericFromDecimal(inv.Subtotal), db.NumericFromDecimal(inv.TaxAmount),
		db.NumericFromDecimal(inv.DiscountAmount), db.NumericFromDecimal(inv.TotalAmount),
		inv.InvoiceDate, inv.DueDate, inv.PaymentTermsDays, inv.Status, inv.CreatedAt)
	if err != nil {
		return mapQuotationWriteErr("insert invoice", err)
	}
	return nil
}

const quotationSelect = `SELECT id, source_order_id, quotation_number, status, subtotal, discount_percentage, discount_amount, total_amount, validity_days, quotation_date, expiry_date, payment_terms_days, delivery_terms, staff_id, notes, accepted_at, rejected_at, rejection_reason, created_at, updated_at
FROM quotations`

func getQuotation(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*Quotation, error) {
	query := quotationSelect + ` WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	quotation, err := scanQuotation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quotation %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return quotation, nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var (
		q              Quotation
		subtotal       pgtype.Numeric
		discountPct    pgtype.Numeric
		discountAmount pgtype.Numeric
		totalAmount    pgtype.Numeric
	)
	if err := row.Scan(&q.ID, &q.SourceOrderID, &q.QuotationNumber, &q.Status,
		&subtotal, &discountPct, &discountAmount, &totalAmount,
		&q.ValidityDays, &q.QuotationDate, &q.ExpiryDate, &q.PaymentTermsDays,
		&q.DeliveryTerms, &q.StaffID, &q.Notes,
		&q.AcceptedAt, &q.RejectedAt, &q.RejectionReason, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Subtotal = db.DecimalFromNumeric(subtotal)
	q.DiscountPercentage = db.NullableDecimal(discountPct)
	q.DiscountAmount = db.DecimalFromNumeric(discountAmount)
	q.TotalAmount = db.DecimalFromNumeric(totalAmount)
	return &q, nil
}

func mapQuotationWriteErr(op string, err error) error {
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
