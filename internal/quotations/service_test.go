package quotations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/voltara-ev/voltara/internal/invoices"
	"github.com/voltara-ev/voltara/internal/shared"
)

type mockRepository struct {
	orders            map[uuid.UUID]OrderTerms
	orderLines        map[uuid.UUID][]OrderLineSnapshot
	dealerTerms       map[uuid.UUID]int
	variantBasePrices map[uuid.UUID]*decimal.Decimal
	quotations        map[uuid.UUID]Quotation
	quotationLines    map[uuid.UUID][]QuotationLine
	invoices          []invoices.Invoice
	sequences         map[string]int64

	failInvoiceInsert bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:            map[uuid.UUID]OrderTerms{},
		orderLines:        map[uuid.UUID][]OrderLineSnapshot{},
		dealerTerms:       map[uuid.UUID]int{},
		variantBasePrices: map[uuid.UUID]*decimal.Decimal{},
		quotations:        map[uuid.UUID]Quotation{},
		quotationLines:    map[uuid.UUID][]QuotationLine{},
		sequences:         map[string]int64{},
	}
}

// WithTx snapshots the mutable state and restores it when fn fails, so tests
// observe the same all-or-nothing behavior the real transaction gives.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	savedQuotations := make(map[uuid.UUID]Quotation, len(m.quotations))
	for k, v := range m.quotations {
		savedQuotations[k] = v
	}
	savedLines := make(map[uuid.UUID][]QuotationLine, len(m.quotationLines))
	for k, v := range m.quotationLines {
		savedLines[k] = append([]QuotationLine(nil), v...)
	}
	savedInvoices := append([]invoices.Invoice(nil), m.invoices...)
	savedSequences := make(map[string]int64, len(m.sequences))
	for k, v := range m.sequences {
		savedSequences[k] = v
	}

	if err := fn(ctx, &mockTx{repo: m}); err != nil {
		m.quotations = savedQuotations
		m.quotationLines = savedLines
		m.invoices = savedInvoices
		m.sequences = savedSequences
		return err
	}
	return nil
}

func (m *mockRepository) Get(_ context.Context, id uuid.UUID) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &q, nil
}

func (m *mockRepository) ListByOrder(_ context.Context, orderID uuid.UUID) ([]Quotation, error) {
	out := []Quotation{}
	for _, q := range m.quotations {
		if q.SourceOrderID == orderID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockRepository) ListLines(_ context.Context, quotationID uuid.UUID) ([]QuotationLine, error) {
	return m.quotationLines[quotationID], nil
}

func (m *mockRepository) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var flipped int64
	for id, q := range m.quotations {
		if q.Status == StatusSent && q.ExpiryDate.Before(now) {
			q.Status = StatusExpired
			m.quotations[id] = q
			flipped++
		}
	}
	return flipped, nil
}

type mockTx struct {
	repo *mockRepository
}

func (t *mockTx) GetOrderTerms(_ context.Context, orderID uuid.UUID) (*OrderTerms, error) {
	terms, ok := t.repo.orders[orderID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &terms, nil
}

func (t *mockTx) GetDealerPaymentTerms(_ context.Context, dealerID uuid.UUID) (int, error) {
	days, ok := t.repo.dealerTerms[dealerID]
	if !ok {
		return 0, fmt.Errorf("dealer %s referenced by order is missing: %w", dealerID, shared.ErrNotFound)
	}
	return days, nil
}

func (t *mockTx) ExistsActiveForOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	for _, q := range t.repo.quotations {
		if q.SourceOrderID == orderID && q.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockTx) ListOrderLines(_ context.Context, orderID uuid.UUID) ([]OrderLineSnapshot, error) {
	return t.repo.orderLines[orderID], nil
}

func (t *mockTx) GetVariantBasePrice(_ context.Context, variantID uuid.UUID) (*decimal.Decimal, error) {
	price, ok := t.repo.variantBasePrices[variantID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return price, nil
}

func (t *mockTx) GenerateQuotationNumber(_ context.Context, now time.Time) (string, error) {
	t.repo.sequences["DQ"]++
	return fmt.Sprintf("DQ-%s-%04d", now.Format("0601"), t.repo.sequences["DQ"]), nil
}

func (t *mockTx) GenerateInvoiceNumber(_ context.Context, now time.Time) (string, error) {
	t.repo.sequences["INV"]++
	return fmt.Sprintf("INV-%s-%04d", now.Format("0601"), t.repo.sequences["INV"]), nil
}

func (t *mockTx) InsertQuotation(_ context.Context, q Quotation) error {
	t.repo.quotations[q.ID] = q
	return nil
}

func (t *mockTx) InsertLine(_ context.Context, line QuotationLine) error {
	t.repo.quotationLines[line.QuotationID] = append(t.repo.quotationLines[line.QuotationID], line)
	return nil
}

func (t *mockTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return t.repo.Get(ctx, id)
}

func (t *mockTx) SetStatus(_ context.Context, id uuid.UUID, status QuotationStatus) error {
	q, ok := t.repo.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = status
	t.repo.quotations[id] = q
	return nil
}

func (t *mockTx) MarkAccepted(_ context.Context, id uuid.UUID, at time.Time) error {
	q, ok := t.repo.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = StatusAccepted
	q.AcceptedAt = &at
	t.repo.quotations[id] = q
	return nil
}

func (t *mockTx) MarkRejected(_ context.Context, id uuid.UUID, at time.Time, reason string) error {
	q, ok := t.repo.quotations[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = StatusRejected
	q.RejectedAt = &at
	q.RejectionReason = &reason
	t.repo.quotations[id] = q
	return nil
}

func (t *mockTx) UpdateDetails(_ context.Context, q Quotation) error {
	if _, ok := t.repo.quotations[q.ID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.quotations[q.ID] = q
	return nil
}

func (t *mockTx) DeleteQuotation(_ context.Context, id uuid.UUID) error {
	if _, ok := t.repo.quotations[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.repo.quotations, id)
	delete(t.repo.quotationLines, id)
	return nil
}

func (t *mockTx) InsertInvoice(_ context.Context, inv invoices.Invoice) error {
	if t.repo.failInvoiceInsert {
		return shared.Internal("insert invoice", errors.New("connection reset"))
	}
	t.repo.invoices = append(t.repo.invoices, inv)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepository
	orderID   uuid.UUID
	dealerID  uuid.UUID
	variantID uuid.UUID
	colorID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMockRepository(),
		orderID:   uuid.New(),
		dealerID:  uuid.New(),
		variantID: uuid.New(),
		colorID:   uuid.New(),
	}
	f.repo.orders[f.orderID] = OrderTerms{DealerID: f.dealerID}
	f.repo.dealerTerms[f.dealerID] = 30
	base := decimal.NewFromInt(900_000_000)
	f.repo.variantBasePrices[f.variantID] = &base
	f.svc = NewService(f.repo)
	return f
}

func (f *fixture) addLine(quantity int64, unitPrice *decimal.Decimal, discount *decimal.Decimal) {
	f.repo.orderLines[f.orderID] = append(f.repo.orderLines[f.orderID], OrderLineSnapshot{
		VariantID:          f.variantID,
		ColorID:            f.colorID,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		DiscountPercentage: discount,
	})
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestGenerateComputesHeaderTotals(t *testing.T) {
	f := newFixture(t)
	f.addLine(2, dec(1_000_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{
		OrderID:                 f.orderID,
		OverrideDiscountPercent: dec(10),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, q.Status)
	require.Regexp(t, `^DQ-\d{4}-\d{4}$`, q.QuotationNumber)
	require.True(t, q.Subtotal.Equal(decimal.NewFromInt(2_000_000_000)))
	require.True(t, q.DiscountAmount.Equal(decimal.NewFromInt(200_000_000)))
	require.True(t, q.TotalAmount.Equal(decimal.NewFromInt(1_800_000_000)))
	require.Equal(t, DefaultValidityDays, q.ValidityDays)
	require.Equal(t, 30, q.PaymentTermsDays)

	lines := f.repo.quotationLines[q.ID]
	require.Len(t, lines, 1)
	require.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(1_000_000_000)))
	require.Equal(t, int64(2), lines[0].Quantity)
}

func TestGenerateSubtotalSumsLineTotals(t *testing.T) {
	f := newFixture(t)
	f.addLine(2, dec(1_500_000), nil)
	f.addLine(1, dec(2_000_000), nil)
	f.addLine(3, dec(800_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	lines := f.repo.quotationLines[q.ID]
	require.Len(t, lines, 3)
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.TotalPrice)
	}
	require.True(t, q.Subtotal.Equal(sum))
	require.True(t, q.DiscountAmount.IsZero())
	require.True(t, q.TotalAmount.Equal(q.Subtotal.Sub(q.DiscountAmount)))
}

func TestGenerateOverrideReplacesLineDiscounts(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), dec(25))

	q, err := f.svc.Generate(context.Background(), GenerateRequest{
		OrderID:                 f.orderID,
		OverrideDiscountPercent: dec(10),
	})
	require.NoError(t, err)

	lines := f.repo.quotationLines[q.ID]
	require.Len(t, lines, 1)
	require.True(t, lines[0].DiscountAmount.Equal(decimal.NewFromInt(100_000)), "override displaces the line's own 25%%")
	require.True(t, q.DiscountAmount.Equal(decimal.NewFromInt(100_000)))
}

func TestGenerateFallsBackToVariantBasePrice(t *testing.T) {
	f := newFixture(t)
	f.addLine(2, nil, nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	lines := f.repo.quotationLines[q.ID]
	require.Len(t, lines, 1)
	require.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(900_000_000)))
	require.True(t, q.Subtotal.Equal(decimal.NewFromInt(1_800_000_000)))
}

func TestGenerateUnknownVariantPricesLineAtZero(t *testing.T) {
	f := newFixture(t)
	f.repo.orderLines[f.orderID] = []OrderLineSnapshot{{
		VariantID: uuid.New(),
		ColorID:   f.colorID,
		Quantity:  2,
	}}

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	require.True(t, q.Subtotal.IsZero())
	require.True(t, q.TotalAmount.IsZero())
}

func TestGenerateConflictsWhileActive(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	first, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	_, err = f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.ErrorIs(t, err, shared.ErrConflict)

	_, err = f.svc.Send(context.Background(), first.ID)
	require.NoError(t, err)

	// Still active while SENT.
	_, err = f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.ErrorIs(t, err, shared.ErrConflict)

	_, err = f.svc.Reject(context.Background(), first.ID, "price too high")
	require.NoError(t, err)

	_, err = f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
}

func TestGenerateUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: uuid.New()})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGenerateMissingDealerReference(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)
	delete(f.repo.dealerTerms, f.dealerID)

	_, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, f.repo.quotations, "no quotation may be written against a missing dealer")
}

func TestGenerateEmptyOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGenerateDiscountOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	_, err := f.svc.Generate(context.Background(), GenerateRequest{
		OrderID:                 f.orderID,
		OverrideDiscountPercent: dec(101),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSendRequiresPending(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	sent, err := f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	_, err = f.svc.Send(context.Background(), q.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestAcceptRequiresSent(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Empty(t, f.repo.invoices)
}

func TestAcceptPastExpiryExpires(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return q.ExpiryDate.AddDate(0, 0, 2) }

	_, err = f.svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, shared.ErrExpired)
	require.Equal(t, StatusExpired, f.repo.quotations[q.ID].Status)
	require.Empty(t, f.repo.invoices, "expiry must never produce an invoice")
}

func TestAcceptConvertsAndCreatesInvoice(t *testing.T) {
	f := newFixture(t)
	f.addLine(2, dec(1_000_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{
		OrderID:                 f.orderID,
		OverrideDiscountPercent: dec(10),
	})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	inv, err := f.svc.Accept(context.Background(), q.ID)
	require.NoError(t, err)
	require.Regexp(t, `^INV-\d{4}-\d{4}$`, inv.InvoiceNumber)
	require.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(1_800_000_000)))
	require.True(t, inv.Subtotal.Equal(decimal.NewFromInt(2_000_000_000)))
	require.True(t, inv.DiscountAmount.Equal(decimal.NewFromInt(200_000_000)))
	require.Equal(t, invoices.InvoiceIssued, inv.Status)
	require.Equal(t, q.ID, inv.SourceQuotationID)
	require.Equal(t, f.orderID, inv.SourceOrderID)

	require.Equal(t, StatusConverted, f.repo.quotations[q.ID].Status)
	require.Len(t, f.repo.invoices, 1)
}

func TestAcceptInvoiceFailureLeavesSent(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	f.repo.failInvoiceInsert = true
	_, err = f.svc.Accept(context.Background(), q.ID)
	require.ErrorIs(t, err, shared.ErrInternal)

	require.Equal(t, StatusSent, f.repo.quotations[q.ID].Status, "failed acceptance must roll back to SENT")
	require.Empty(t, f.repo.invoices)
}

func TestRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), q.ID, "competitor undercut")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedAt)
	require.Equal(t, "competitor undercut", *rejected.RejectionReason)
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)

	days := 45
	updated, err := f.svc.Update(context.Background(), q.ID, UpdateRequest{ValidityDays: &days})
	require.NoError(t, err)
	require.Equal(t, 45, updated.ValidityDays)
	require.Equal(t, q.QuotationDate.Truncate(24*time.Hour).AddDate(0, 0, 45), updated.ExpiryDate)

	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), q.ID, UpdateRequest{ValidityDays: &days})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeleteOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), q.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.svc.Reject(context.Background(), q.ID, "no longer needed")
	require.NoError(t, err)

	f.addLine(1, dec(1_000_000), nil)
	fresh, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), fresh.ID))
	require.NotContains(t, f.repo.quotations, fresh.ID)
}

func TestExpireOverdueFlipsSentOnly(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return q.ExpiryDate.AddDate(0, 0, 1) }

	flipped, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), flipped)
	require.Equal(t, StatusExpired, f.repo.quotations[q.ID].Status)

	flipped, err = f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, flipped)
}

func TestExpireOverdueSparesExpiryDay(t *testing.T) {
	f := newFixture(t)
	f.addLine(1, dec(1_000_000), nil)

	q, err := f.svc.Generate(context.Background(), GenerateRequest{OrderID: f.orderID})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)

	// Mid-afternoon on the expiry date itself: Accept still honors the
	// quotation, so the sweep must leave it alone.
	f.svc.now = func() time.Time { return q.ExpiryDate.Add(14 * time.Hour) }

	flipped, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, flipped)
	require.Equal(t, StatusSent, f.repo.quotations[q.ID].Status)

	inv, err := f.svc.Accept(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	require.Equal(t, StatusConverted, f.repo.quotations[q.ID].Status)
}
