package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltara-ev/voltara/internal/shared"
)

// AvailabilityReader supplies the two counts the admission check needs.
// Callers that hold a transaction implement it over that transaction so the
// counts and the subsequent insert observe the same snapshot.
type AvailabilityReader interface {
	CountAvailable(ctx context.Context, variantID, colorID uuid.UUID) (int64, error)
	SumPendingQuantity(ctx context.Context, variantID uuid.UUID) (int64, error)
}

// Guard decides whether a requested quantity can be admitted on top of the
// quantity already promised to unconfirmed order lines.
type Guard struct{}

// NewGuard constructs Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// CheckAvailable refuses the request when available stock minus pending
// commitments cannot cover it. Pending is summed per variant regardless of
// color; a refusal carries the counts that drove it.
func (g *Guard) CheckAvailable(ctx context.Context, r AvailabilityReader, variantID, colorID uuid.UUID, requested int64) error {
	available, err := r.CountAvailable(ctx, variantID, colorID)
	if err != nil {
		return shared.Internal("inventory: count available", err)
	}
	pending, err := r.SumPendingQuantity(ctx, variantID)
	if err != nil {
		return shared.Internal("inventory: sum pending", err)
	}
	if available-pending < requested {
		return &shared.InsufficientInventoryError{
			VariantID: variantID,
			ColorID:   colorID,
			Available: available,
			Pending:   pending,
			Requested: requested,
		}
	}
	return nil
}
