package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Business error kinds surfaced to callers. Handlers map these to transport
// status codes; nothing is inferred from message text.
var (
	// ErrNotFound indicates a missing order, variant, color, dealer or quotation.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate active quotation or document number.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState indicates a transition attempted from a forbidding state.
	ErrInvalidState = errors.New("invalid state")
	// ErrExpired indicates an acceptance attempted past the quotation expiry date.
	ErrExpired = errors.New("expired")
	// ErrValidation indicates a missing or out-of-range input field.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientInventory is the sentinel unwrapped by InsufficientInventoryError.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrInternal marks unexpected persistence or infrastructure failures,
	// distinct from the business kinds above.
	ErrInternal = errors.New("internal error")
)

// InsufficientInventoryError reports an admission-control refusal with the
// quantities that drove the decision.
type InsufficientInventoryError struct {
	VariantID uuid.UUID
	ColorID   uuid.UUID
	Available int64
	Pending   int64
	Requested int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for variant %s color %s: available=%d pending=%d requested=%d",
		e.VariantID, e.ColorID, e.Available, e.Pending, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// Internal wraps an infrastructure failure so callers can distinguish it from
// business refusals via errors.Is(err, ErrInternal).
func Internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
