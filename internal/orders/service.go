package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltara-ev/voltara/internal/catalog"
	"github.com/voltara-ev/voltara/internal/dealers"
	"github.com/voltara-ev/voltara/internal/inventory"
	"github.com/voltara-ev/voltara/internal/pricing"
	"github.com/voltara-ev/voltara/internal/shared"
)

// store is the persistence surface the service needs.
type store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, dealerID *uuid.UUID) ([]Order, error)
	GetLine(ctx context.Context, id uuid.UUID) (*OrderLine, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error)
}

// VariantCatalog resolves variant and color references before a line is
// admitted.
type VariantCatalog interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
	GetColor(ctx context.Context, id uuid.UUID) (*catalog.Color, error)
}

// DealerDirectory resolves the dealer behind an order header. A missing
// dealer is an error surfaced to the caller, never substituted.
type DealerDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*dealers.Dealer, error)
}

// snapshotInvalidator drops cached availability after a mutation.
type snapshotInvalidator interface {
	InvalidateAvailability(ctx context.Context, variantID, colorID uuid.UUID)
}

// Service implements order and order-line operations.
type Service struct {
	repo      store
	catalog   VariantCatalog
	dealerDir DealerDirectory
	guard     *inventory.Guard
	snapshots snapshotInvalidator
}

// NewService constructs an orders service. snapshots may be nil when no
// availability cache is wired.
func NewService(repo store, cat VariantCatalog, dealerDir DealerDirectory, guard *inventory.Guard, snapshots snapshotInvalidator) *Service {
	return &Service{repo: repo, catalog: cat, dealerDir: dealerDir, guard: guard, snapshots: snapshots}
}

// CreateOrder opens a header for the dealer with a generated order number.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if _, err := s.dealerDir.Get(ctx, req.DealerID); err != nil {
		return nil, fmt.Errorf("resolve dealer: %w", err)
	}

	order := Order{
		ID:               uuid.New(),
		DealerID:         req.DealerID,
		Status:           OrderOpen,
		PaymentTermsDays: req.PaymentTermsDays,
		DeliveryTerms:    req.DeliveryTerms,
		Notes:            req.Notes,
		CreatedAt:        time.Now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.GenerateOrderNumber(ctx, order.CreatedAt)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	order.UpdatedAt = order.CreatedAt
	return &order, nil
}

// CreateLine admits one line onto an open order. The availability check and
// the insert share one transaction holding the variant ledger lock. A
// concurrent create for the same variant either waits on that lock or, under
// repeatable read, aborts on the ledger upsert with a serialization failure;
// it never admits against counts that predate the first insert.
func (s *Service) CreateLine(ctx context.Context, req CreateLineRequest) (*OrderLine, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", shared.ErrValidation)
	}
	if err := validatePricingInputs(req.UnitPrice, req.DiscountPercent); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetVariant(ctx, req.VariantID); err != nil {
		return nil, fmt.Errorf("resolve variant: %w", err)
	}
	if _, err := s.catalog.GetColor(ctx, req.ColorID); err != nil {
		return nil, fmt.Errorf("resolve color: %w", err)
	}

	breakdown := pricing.Compute(req.UnitPrice, req.Quantity, discountOrZero(req.DiscountPercent))
	line := OrderLine{
		ID:                 uuid.New(),
		OrderID:            req.OrderID,
		VariantID:          req.VariantID,
		ColorID:            req.ColorID,
		Quantity:           req.Quantity,
		UnitPrice:          req.UnitPrice,
		DiscountPercentage: req.DiscountPercent,
		TotalPrice:         breakdown.TotalPrice,
		DiscountAmount:     breakdown.DiscountAmount,
		FinalPrice:         breakdown.FinalPrice,
		Status:             LinePending,
		Notes:              req.Notes,
		CreatedAt:          time.Now().UTC(),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetOrder(ctx, req.OrderID); err != nil {
			return err
		}
		if err := tx.LockVariantLedger(ctx, req.VariantID); err != nil {
			return err
		}
		if err := s.guard.CheckAvailable(ctx, tx, req.VariantID, req.ColorID, req.Quantity); err != nil {
			return err
		}
		return tx.InsertLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, line.VariantID, line.ColorID)
	line.UpdatedAt = line.CreatedAt
	return &line, nil
}

// UpdateLine patches a line and recomputes the derived amounts when any
// pricing input changed. The availability guard is not re-run on quantity
// increases.
func (s *Service) UpdateLine(ctx context.Context, id uuid.UUID, patch UpdateLineRequest) (*OrderLine, error) {
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", shared.ErrValidation)
	}
	if err := validatePricingInputs(patch.UnitPrice, patch.DiscountPercent); err != nil {
		return nil, err
	}

	var updated *OrderLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if line.Status == LineDelivered || line.Status == LineCancelled {
			return fmt.Errorf("line %s is %s: %w", id, line.Status, shared.ErrInvalidState)
		}

		repriced := false
		if patch.Quantity != nil {
			line.Quantity = *patch.Quantity
			repriced = true
		}
		if patch.UnitPrice != nil {
			line.UnitPrice = patch.UnitPrice
			repriced = true
		}
		if patch.DiscountPercent != nil {
			line.DiscountPercentage = patch.DiscountPercent
			repriced = true
		}
		if patch.Notes != nil {
			line.Notes = patch.Notes
		}
		if repriced {
			b := pricing.Compute(line.UnitPrice, line.Quantity, discountOrZero(line.DiscountPercentage))
			line.TotalPrice = b.TotalPrice
			line.DiscountAmount = b.DiscountAmount
			line.FinalPrice = b.FinalPrice
		}
		if err := tx.UpdateLine(ctx, *line); err != nil {
			return err
		}
		updated = line
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.VariantID, updated.ColorID)
	return updated, nil
}

// DeleteLine removes a line that has not shipped. Confirmed and delivered
// lines are immutable.
func (s *Service) DeleteLine(ctx context.Context, id uuid.UUID) error {
	var variantID, colorID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLineForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if line.Status == LineConfirmed || line.Status == LineDelivered {
			return fmt.Errorf("line %s is %s: %w", id, line.Status, shared.ErrInvalidState)
		}
		variantID, colorID = line.VariantID, line.ColorID
		return tx.DeleteLine(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, variantID, colorID)
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, dealerID *uuid.UUID) ([]Order, error) {
	return s.repo.ListOrders(ctx, dealerID)
}

func (s *Service) GetLine(ctx context.Context, id uuid.UUID) (*OrderLine, error) {
	return s.repo.GetLine(ctx, id)
}

func (s *Service) ListLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	return s.repo.ListLines(ctx, orderID)
}

// Summary returns the order with its lines and their aggregate.
func (s *Service) Summary(ctx context.Context, orderID uuid.UUID) (*OrderSummary, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderSummary{Order: *order, Lines: lines, Totals: AggregateTotals(lines)}, nil
}

// AggregateTotals sums final price and quantity over a set of lines.
func AggregateTotals(lines []OrderLine) Totals {
	var t Totals
	for _, line := range lines {
		t.TotalAmount = t.TotalAmount.Add(line.FinalPrice)
		t.TotalQuantity += line.Quantity
	}
	return t
}

func (s *Service) invalidate(ctx context.Context, variantID, colorID uuid.UUID) {
	if s.snapshots != nil {
		s.snapshots.InvalidateAvailability(ctx, variantID, colorID)
	}
}

func validatePricingInputs(unitPrice, discountPercent *decimal.Decimal) error {
	if unitPrice != nil && unitPrice.IsNegative() {
		return fmt.Errorf("unit price must not be negative: %w", shared.ErrValidation)
	}
	if discountPercent != nil {
		if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("discount percentage must be within [0,100]: %w", shared.ErrValidation)
		}
	}
	return nil
}

func discountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
