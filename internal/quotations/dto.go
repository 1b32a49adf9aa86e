package quotations

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateRequest creates a quotation from an order's current lines.
// OverrideDiscountPercent, when positive, replaces every line's own discount
// and drives the header discount.
type GenerateRequest struct {
	OrderID                 uuid.UUID        `json:"orderId" validate:"required"`
	StaffID                 *uuid.UUID       `json:"staffId,omitempty"`
	OverrideDiscountPercent *decimal.Decimal `json:"discountPercentage,omitempty"`
	ValidityDays            *int             `json:"validityDays,omitempty" validate:"omitempty,gt=0"`
	Notes                   *string          `json:"notes,omitempty"`
}

// RejectRequest records the dealer's refusal.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UpdateRequest patches a PENDING quotation. Amount fields are not patchable;
// regenerate the quotation to reprice it.
type UpdateRequest struct {
	ValidityDays  *int    `json:"validityDays,omitempty" validate:"omitempty,gt=0"`
	DeliveryTerms *string `json:"deliveryTerms,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}
