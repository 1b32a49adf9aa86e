package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltara-ev/voltara/internal/invoices"
	"github.com/voltara-ev/voltara/internal/pricing"
	"github.com/voltara-ev/voltara/internal/shared"
)

// store is the persistence surface the service needs.
type store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Quotation, error)
	ListLines(ctx context.Context, quotationID uuid.UUID) ([]QuotationLine, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Service implements quotation generation and the quotation state machine.
type Service struct {
	repo store
	now  func() time.Time
}

// NewService constructs a quotations service.
func NewService(repo store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Generate builds a quotation from the order's current lines. The order
// read, the duplicate-active check and the quotation write share one
// transaction, so the line set cannot shift mid-generation and two
// generators for the same order cannot both commit an active quotation.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Quotation, error) {
	if req.OverrideDiscountPercent != nil {
		pct := *req.OverrideDiscountPercent
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("discount percentage must be within [0,100]: %w", shared.ErrValidation)
		}
	}

	var quotation Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		terms, err := tx.GetOrderTerms(ctx, req.OrderID)
		if err != nil {
			return err
		}
		active, err := tx.ExistsActiveForOrder(ctx, req.OrderID)
		if err != nil {
			return shared.Internal("quotations: check active", err)
		}
		if active {
			return fmt.Errorf("order %s already has an active quotation: %w", req.OrderID, shared.ErrConflict)
		}
		dealerTermsDays, err := tx.GetDealerPaymentTerms(ctx, terms.DealerID)
		if err != nil {
			return err
		}
		sourceLines, err := tx.ListOrderLines(ctx, req.OrderID)
		if err != nil {
			return shared.Internal("quotations: list order lines", err)
		}
		if len(sourceLines) == 0 {
			return fmt.Errorf("order %s has no lines to quote: %w", req.OrderID, shared.ErrValidation)
		}

		now := s.now().UTC()
		number, err := tx.GenerateQuotationNumber(ctx, now)
		if err != nil {
			return err
		}

		validityDays := DefaultValidityDays
		if req.ValidityDays != nil {
			validityDays = *req.ValidityDays
		}
		paymentTermsDays := dealerTermsDays
		if terms.PaymentTermsDays != nil && *terms.PaymentTermsDays > 0 {
			paymentTermsDays = *terms.PaymentTermsDays
		}
		if paymentTermsDays <= 0 {
			paymentTermsDays = invoices.DefaultPaymentTermsDays
		}

		quotation = Quotation{
			ID:                 uuid.New(),
			SourceOrderID:      req.OrderID,
			QuotationNumber:    number,
			Status:             StatusPending,
			DiscountPercentage: req.OverrideDiscountPercent,
			ValidityDays:       validityDays,
			QuotationDate:      now,
			ExpiryDate:         now.Truncate(24 * time.Hour).AddDate(0, 0, validityDays),
			PaymentTermsDays:   paymentTermsDays,
			DeliveryTerms:      terms.DeliveryTerms,
			StaffID:            req.StaffID,
			Notes:              req.Notes,
			CreatedAt:          now,
		}

		overrideActive := req.OverrideDiscountPercent != nil && req.OverrideDiscountPercent.IsPositive()
		lines := make([]QuotationLine, 0, len(sourceLines))
		subtotal := decimal.Zero
		for _, src := range sourceLines {
			unitPrice, err := effectiveUnitPrice(ctx, tx, src)
			if err != nil {
				return err
			}
			lineDiscount := src.DiscountPercentage
			if overrideActive {
				lineDiscount = req.OverrideDiscountPercent
			}
			line := NewLine(quotation.ID, src.VariantID, src.ColorID, src.Quantity, unitPrice, lineDiscount, now)
			subtotal = subtotal.Add(line.TotalPrice)
			lines = append(lines, line)
		}

		quotation.Subtotal = subtotal
		if overrideActive {
			quotation.DiscountAmount = pricing.HeaderDiscount(subtotal, *req.OverrideDiscountPercent)
		} else {
			quotation.DiscountAmount = decimal.Zero
		}
		quotation.TotalAmount = subtotal.Sub(quotation.DiscountAmount)

		if err := tx.InsertQuotation(ctx, quotation); err != nil {
			return err
		}
		for _, line := range lines {
			if err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	quotation.UpdatedAt = quotation.CreatedAt
	return &quotation, nil
}

// effectiveUnitPrice resolves the price a snapshot line freezes: the order
// line's own price when set, else the variant's list price, else zero.
func effectiveUnitPrice(ctx context.Context, tx TxRepository, src OrderLineSnapshot) (decimal.Decimal, error) {
	if src.UnitPrice != nil {
		return *src.UnitPrice, nil
	}
	basePrice, err := tx.GetVariantBasePrice(ctx, src.VariantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if basePrice == nil {
		return decimal.Zero, nil
	}
	return *basePrice, nil
}

// Send moves a PENDING quotation to SENT.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	var out *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusPending {
			return fmt.Errorf("cannot send quotation in status %s: %w", q.Status, shared.ErrInvalidState)
		}
		if err := tx.SetStatus(ctx, id, StatusSent); err != nil {
			return err
		}
		q.Status = StatusSent
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Accept converts a SENT quotation into an invoice. Acceptance, invoice
// creation and the CONVERTED flip commit as one transaction; any failure
// leaves the quotation SENT. An acceptance past the expiry date commits the
// EXPIRED flip and reports the expiry to the caller.
func (s *Service) Accept(ctx context.Context, id uuid.UUID) (*invoices.Invoice, error) {
	var (
		invoice *invoices.Invoice
		expired bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusSent {
			return fmt.Errorf("cannot accept quotation in status %s: %w", q.Status, shared.ErrInvalidState)
		}

		now := s.now().UTC()
		if q.ExpiryDate.Before(now.Truncate(24 * time.Hour)) {
			if err := tx.SetStatus(ctx, id, StatusExpired); err != nil {
				return err
			}
			expired = true
			return nil
		}

		if err := tx.MarkAccepted(ctx, id, now); err != nil {
			return err
		}
		number, err := tx.GenerateInvoiceNumber(ctx, now)
		if err != nil {
			return err
		}
		inv := invoices.New(invoices.Source{
			OrderID:          q.SourceOrderID,
			QuotationID:      q.ID,
			Subtotal:         q.Subtotal,
			DiscountAmount:   q.DiscountAmount,
			TotalAmount:      q.TotalAmount,
			PaymentTermsDays: q.PaymentTermsDays,
		}, number, now)
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, id, StatusConverted); err != nil {
			return err
		}
		invoice = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, fmt.Errorf("quotation %s expired before acceptance: %w", id, shared.ErrExpired)
	}
	return invoice, nil
}

// Reject records the dealer's refusal on a SENT quotation.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Quotation, error) {
	var out *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusSent {
			return fmt.Errorf("cannot reject quotation in status %s: %w", q.Status, shared.ErrInvalidState)
		}
		now := s.now().UTC()
		if err := tx.MarkRejected(ctx, id, now, reason); err != nil {
			return err
		}
		q.Status = StatusRejected
		q.RejectedAt = &now
		q.RejectionReason = &reason
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches validity, delivery terms or notes while the quotation is
// still PENDING. A validity change moves the expiry date with it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateRequest) (*Quotation, error) {
	var out *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusPending {
			return fmt.Errorf("cannot update quotation in status %s: %w", q.Status, shared.ErrInvalidState)
		}
		if patch.ValidityDays != nil {
			q.ValidityDays = *patch.ValidityDays
			q.ExpiryDate = q.QuotationDate.Truncate(24 * time.Hour).AddDate(0, 0, q.ValidityDays)
		}
		if patch.DeliveryTerms != nil {
			q.DeliveryTerms = patch.DeliveryTerms
		}
		if patch.Notes != nil {
			q.Notes = patch.Notes
		}
		if err := tx.UpdateDetails(ctx, *q); err != nil {
			return err
		}
		out = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a quotation and its lines while still PENDING.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusPending {
			return fmt.Errorf("cannot delete quotation in status %s: %w", q.Status, shared.ErrInvalidState)
		}
		return tx.DeleteQuotation(ctx, id)
	})
}

// ExpireOverdue flips SENT quotations past their expiry date to EXPIRED and
// reports how many it flipped. The cutoff is truncated to the start of the
// current day so the sweep and the check inside Accept agree: a quotation
// stays acceptable for the whole of its expiry date.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx, s.now().UTC().Truncate(24*time.Hour))
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Quotation, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *Service) ListLines(ctx context.Context, quotationID uuid.UUID) ([]QuotationLine, error) {
	return s.repo.ListLines(ctx, quotationID)
}
