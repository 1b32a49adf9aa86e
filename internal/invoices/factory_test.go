package invoices

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewCopiesAmountsVerbatim(t *testing.T) {
	src := Source{
		OrderID:          uuid.New(),
		QuotationID:      uuid.New(),
		Subtotal:         decimal.NewFromInt(2_000_000_000),
		DiscountAmount:   decimal.NewFromInt(200_000_000),
		TotalAmount:      decimal.NewFromInt(1_800_000_000),
		PaymentTermsDays: 45,
	}
	issuedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	inv := New(src, "INV-2603-0007", issuedAt)

	require.Equal(t, "INV-2603-0007", inv.InvoiceNumber)
	require.Equal(t, src.OrderID, inv.SourceOrderID)
	require.Equal(t, src.QuotationID, inv.SourceQuotationID)
	require.True(t, inv.Subtotal.Equal(src.Subtotal))
	require.True(t, inv.DiscountAmount.Equal(src.DiscountAmount))
	require.True(t, inv.TotalAmount.Equal(src.TotalAmount))
	require.True(t, inv.TaxAmount.IsZero())
	require.Equal(t, InvoiceIssued, inv.Status)
	require.Equal(t, 45, inv.PaymentTermsDays)
	require.Equal(t, issuedAt.AddDate(0, 0, 45), inv.DueDate)
}

func TestNewDefaultsPaymentTerms(t *testing.T) {
	issuedAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	inv := New(Source{TotalAmount: decimal.NewFromInt(1)}, "INV-2603-0008", issuedAt)

	require.Equal(t, DefaultPaymentTermsDays, inv.PaymentTermsDays)
	require.Equal(t, issuedAt.AddDate(0, 0, DefaultPaymentTermsDays), inv.DueDate)
}
