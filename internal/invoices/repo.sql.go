package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltara-ev/voltara/internal/platform/db"
	"github.com/voltara-ev/voltara/internal/shared"
)

// Repository reads invoices from PostgreSQL. Writes happen inside the
// quotation acceptance transaction, not here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceSelect = `SELECT id, invoice_number, source_order_id, source_quotation_id, subtotal, tax_amount, discount_amount, total_amount, invoice_date, due_date, payment_terms_days, status, created_at
FROM invoices`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return inv, nil
}

func (r *Repository) GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE source_quotation_id=$1`, quotationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice for quotation %s: %w", quotationID, shared.ErrNotFound)
		}
		return nil, err
	}
	return inv, nil
}

func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, invoiceSelect+` WHERE source_order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv            Invoice
		subtotal       pgtype.Numeric
		taxAmount      pgtype.Numeric
		discountAmount pgtype.Numeric
		totalAmount    pgtype.Numeric
	)
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.SourceOrderID, &inv.SourceQuotationID,
		&subtotal, &taxAmount, &discountAmount, &totalAmount,
		&inv.InvoiceDate, &inv.DueDate, &inv.PaymentTermsDays, &inv.Status, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Subtotal = db.DecimalFromNumeric(subtotal)
	inv.TaxAmount = db.DecimalFromNumeric(taxAmount)
	inv.DiscountAmount = db.DecimalFromNumeric(discountAmount)
	inv.TotalAmount = db.DecimalFromNumeric(totalAmount)
	return &inv, nil
}
