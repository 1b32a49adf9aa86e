// Package invoices holds the immutable financial records cut from accepted
// quotations.
package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the settlement state of an invoice. Only ISSUED is
// assigned here; PAID and VOID belong to the receivables process.
type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
	InvoiceVoid   InvoiceStatus = "VOID"
)

// Invoice is a frozen snapshot of an accepted quotation's amounts. It
// references its sources by ID only and survives their archival.
type Invoice struct {
	ID                uuid.UUID       `json:"id"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	SourceOrderID     uuid.UUID       `json:"sourceOrderId"`
	SourceQuotationID uuid.UUID       `json:"sourceQuotationId"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	InvoiceDate       time.Time       `json:"invoiceDate"`
	DueDate           time.Time       `json:"dueDate"`
	PaymentTermsDays  int             `json:"paymentTermsDays"`
	Status            InvoiceStatus   `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Source carries the quotation amounts an invoice freezes. Amounts are
// copied verbatim; nothing is recomputed at invoicing time.
type Source struct {
	OrderID          uuid.UUID
	QuotationID      uuid.UUID
	Subtotal         decimal.Decimal
	DiscountAmount   decimal.Decimal
	TotalAmount      decimal.Decimal
	PaymentTermsDays int
}
