package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTermsDays applies when neither the order nor the dealer
// carries payment terms.
const DefaultPaymentTermsDays = 30

// New builds an ISSUED invoice from a quotation snapshot. Amounts transfer
// verbatim, tax is zero until a tax engine exists, and the due date is the
// issue date plus the payment terms.
func New(src Source, number string, issuedAt time.Time) Invoice {
	terms := src.PaymentTermsDays
	if terms <= 0 {
		terms = DefaultPaymentTermsDays
	}
	issuedAt = issuedAt.UTC()
	return Invoice{
		ID:                uuid.New(),
		InvoiceNumber:     number,
		SourceOrderID:     src.OrderID,
		SourceQuotationID: src.QuotationID,
		Subtotal:          src.Subtotal,
		TaxAmount:         decimal.Zero,
		DiscountAmount:    src.DiscountAmount,
		TotalAmount:       src.TotalAmount,
		InvoiceDate:       issuedAt,
		DueDate:           issuedAt.AddDate(0, 0, terms),
		PaymentTermsDays:  terms,
		Status:            InvoiceIssued,
		CreatedAt:         issuedAt,
	}
}
