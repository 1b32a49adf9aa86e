package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/voltara-ev/voltara/internal/catalog"
	"github.com/voltara-ev/voltara/internal/dealers"
	"github.com/voltara-ev/voltara/internal/inventory"
	"github.com/voltara-ev/voltara/internal/shared"
)

type pairKey struct {
	variant uuid.UUID
	color   uuid.UUID
}

type mockRepository struct {
	orders    map[uuid.UUID]Order
	lines     map[uuid.UUID]OrderLine
	available map[pairKey]int64
	seq       int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:    map[uuid.UUID]Order{},
		lines:     map[uuid.UUID]OrderLine{},
		available: map[pairKey]int64{},
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{repo: m})
}

func (m *mockRepository) GetOrder(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (m *mockRepository) ListOrders(_ context.Context, dealerID *uuid.UUID) ([]Order, error) {
	out := []Order{}
	for _, o := range m.orders {
		if dealerID == nil || o.DealerID == *dealerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepository) GetLine(_ context.Context, id uuid.UUID) (*OrderLine, error) {
	l, ok := m.lines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (m *mockRepository) ListLines(_ context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	out := []OrderLine{}
	for _, l := range m.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockTx struct {
	repo *mockRepository
}

func (t *mockTx) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return t.repo.GetOrder(ctx, id)
}

func (t *mockTx) GenerateOrderNumber(_ context.Context, now time.Time) (string, error) {
	t.repo.seq++
	return fmt.Sprintf("ORD-%s-%04d", now.Format("0601"), t.repo.seq), nil
}

func (t *mockTx) InsertOrder(_ context.Context, o Order) error {
	t.repo.orders[o.ID] = o
	return nil
}

func (t *mockTx) LockVariantLedger(_ context.Context, _ uuid.UUID) error {
	return nil
}

func (t *mockTx) CountAvailable(_ context.Context, variantID, colorID uuid.UUID) (int64, error) {
	return t.repo.available[pairKey{variantID, colorID}], nil
}

func (t *mockTx) SumPendingQuantity(_ context.Context, variantID uuid.UUID) (int64, error) {
	var n int64
	for _, l := range t.repo.lines {
		if l.VariantID == variantID && (l.Status == LinePending || l.Status == LineConfirmed) {
			n += l.Quantity
		}
	}
	return n, nil
}

func (t *mockTx) InsertLine(_ context.Context, line OrderLine) error {
	t.repo.lines[line.ID] = line
	return nil
}

func (t *mockTx) GetLineForUpdate(ctx context.Context, id uuid.UUID) (*OrderLine, error) {
	return t.repo.GetLine(ctx, id)
}

func (t *mockTx) UpdateLine(_ context.Context, line OrderLine) error {
	if _, ok := t.repo.lines[line.ID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.lines[line.ID] = line
	return nil
}

func (t *mockTx) DeleteLine(_ context.Context, id uuid.UUID) error {
	if _, ok := t.repo.lines[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.repo.lines, id)
	return nil
}

type stubCatalog struct {
	variants map[uuid.UUID]catalog.Variant
	colors   map[uuid.UUID]catalog.Color
}

func (s *stubCatalog) GetVariant(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	v, ok := s.variants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (s *stubCatalog) GetColor(_ context.Context, id uuid.UUID) (*catalog.Color, error) {
	c, ok := s.colors[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

type stubDealers struct {
	known map[uuid.UUID]dealers.Dealer
}

func (s *stubDealers) Get(_ context.Context, id uuid.UUID) (*dealers.Dealer, error) {
	d, ok := s.known[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepository
	catalog   *stubCatalog
	dealers   *stubDealers
	dealerID  uuid.UUID
	variantID uuid.UUID
	colorID   uuid.UUID
	orderID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMockRepository(),
		dealerID:  uuid.New(),
		variantID: uuid.New(),
		colorID:   uuid.New(),
		orderID:   uuid.New(),
	}
	f.catalog = &stubCatalog{
		variants: map[uuid.UUID]catalog.Variant{
			f.variantID: {ID: f.variantID, Name: "Model S Long Range", BasePrice: decimal.NewFromInt(900_000_000)},
		},
		colors: map[uuid.UUID]catalog.Color{
			f.colorID: {ID: f.colorID, Name: "Midnight Silver"},
		},
	}
	f.dealers = &stubDealers{known: map[uuid.UUID]dealers.Dealer{
		f.dealerID: {ID: f.dealerID, Code: "DLR-001", Name: "Hanoi Motors", PaymentTermsDays: 30},
	}}
	f.repo.orders[f.orderID] = Order{ID: f.orderID, DealerID: f.dealerID, OrderNumber: "ORD-2609-0001", Status: OrderOpen}
	f.svc = NewService(f.repo, f.catalog, f.dealers, inventory.NewGuard(), nil)
	return f
}

func (f *fixture) stock(n int64) {
	f.repo.available[pairKey{f.variantID, f.colorID}] = n
}

func TestCreateOrderUnknownDealer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{DealerID: uuid.New()})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateOrderGeneratesNumber(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{DealerID: f.dealerID})
	require.NoError(t, err)
	require.Regexp(t, `^ORD-\d{4}-\d{4}$`, order.OrderNumber)
	require.Equal(t, OrderOpen, order.Status)
}

func TestCreateLineComputesDerivedAmounts(t *testing.T) {
	f := newFixture(t)
	f.stock(10)
	price := decimal.NewFromInt(1_000_000)
	pct := decimal.NewFromInt(10)

	line, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID:         f.orderID,
		VariantID:       f.variantID,
		ColorID:         f.colorID,
		Quantity:        3,
		UnitPrice:       &price,
		DiscountPercent: &pct,
	})
	require.NoError(t, err)
	require.Equal(t, LinePending, line.Status)
	require.True(t, line.TotalPrice.Equal(decimal.NewFromInt(3_000_000)))
	require.True(t, line.DiscountAmount.Equal(decimal.NewFromInt(300_000)))
	require.True(t, line.FinalPrice.Equal(decimal.NewFromInt(2_700_000)))
}

func TestCreateLineExactRemainderSucceeds(t *testing.T) {
	f := newFixture(t)
	f.stock(5)

	_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 3,
	})
	require.NoError(t, err)

	// 2 units remain after the pending 3.
	_, err = f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 2,
	})
	require.NoError(t, err)
}

func TestCreateLineInsufficientInventory(t *testing.T) {
	f := newFixture(t)
	f.stock(5)

	_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 3,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 3,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientInventory)

	var detail *shared.InsufficientInventoryError
	require.True(t, errors.As(err, &detail))
	require.Equal(t, int64(5), detail.Available)
	require.Equal(t, int64(3), detail.Pending)
	require.Equal(t, int64(3), detail.Requested)
	require.Len(t, f.repo.lines, 1, "refused line must not be persisted")
}

func TestCreateLineUnknownVariant(t *testing.T) {
	f := newFixture(t)
	f.stock(10)

	_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: uuid.New(), ColorID: f.colorID, Quantity: 1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateLineUnknownOrder(t *testing.T) {
	f := newFixture(t)
	f.stock(10)

	_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: uuid.New(), VariantID: f.variantID, ColorID: f.colorID, Quantity: 1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateLineDiscountOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.stock(10)
	pct := decimal.NewFromInt(101)

	_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 1,
		DiscountPercent: &pct,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateLineNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	f.stock(10)
	price := decimal.NewFromInt(1_000_000)

	for _, qty := range []int64{0, -10} {
		_, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
			OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: qty, UnitPrice: &price,
		})
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Empty(t, f.repo.lines, "refused line must not be persisted")
}

func TestUpdateLineRecomputesDerivedAmounts(t *testing.T) {
	f := newFixture(t)
	f.stock(10)
	price := decimal.NewFromInt(1_000_000)

	line, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 2, UnitPrice: &price,
	})
	require.NoError(t, err)

	qty := int64(4)
	updated, err := f.svc.UpdateLine(context.Background(), line.ID, UpdateLineRequest{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, int64(4), updated.Quantity)
	require.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(4_000_000)))
	require.True(t, updated.FinalPrice.Equal(decimal.NewFromInt(4_000_000)))
}

func TestUpdateLineNotesOnlyKeepsAmounts(t *testing.T) {
	f := newFixture(t)
	f.stock(10)
	price := decimal.NewFromInt(500_000)

	line, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 2, UnitPrice: &price,
	})
	require.NoError(t, err)

	notes := "deliver to northern depot"
	updated, err := f.svc.UpdateLine(context.Background(), line.ID, UpdateLineRequest{Notes: &notes})
	require.NoError(t, err)
	require.True(t, updated.TotalPrice.Equal(line.TotalPrice))
	require.Equal(t, &notes, updated.Notes)
}

func TestUpdateDeliveredLineFails(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.repo.lines[id] = OrderLine{ID: id, OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 1, Status: LineDelivered}

	qty := int64(2)
	_, err := f.svc.UpdateLine(context.Background(), id, UpdateLineRequest{Quantity: &qty})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeleteConfirmedLineFails(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.repo.lines[id] = OrderLine{ID: id, OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 1, Status: LineConfirmed}

	err := f.svc.DeleteLine(context.Background(), id)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Contains(t, f.repo.lines, id)
}

func TestDeletePendingLineSucceeds(t *testing.T) {
	f := newFixture(t)
	f.stock(10)

	line, err := f.svc.CreateLine(context.Background(), CreateLineRequest{
		OrderID: f.orderID, VariantID: f.variantID, ColorID: f.colorID, Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteLine(context.Background(), line.ID))
	require.NotContains(t, f.repo.lines, line.ID)
}

func TestAggregateTotals(t *testing.T) {
	lines := []OrderLine{
		{Quantity: 2, FinalPrice: decimal.NewFromInt(1_800_000)},
		{Quantity: 1, FinalPrice: decimal.NewFromInt(950_000)},
		{Quantity: 3, FinalPrice: decimal.RequireFromString("419999.99")},
	}

	totals := AggregateTotals(lines)
	require.Equal(t, int64(6), totals.TotalQuantity)
	require.True(t, totals.TotalAmount.Equal(decimal.RequireFromString("3169999.99")))
}

func TestAggregateTotalsEmpty(t *testing.T) {
	totals := AggregateTotals(nil)
	require.Zero(t, totals.TotalQuantity)
	require.True(t, totals.TotalAmount.IsZero())
}
