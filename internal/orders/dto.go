package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest opens a new order header for a dealer.
type CreateOrderRequest struct {
	DealerID         uuid.UUID `json:"dealerId" validate:"required"`
	PaymentTermsDays *int      `json:"paymentTermsDays,omitempty" validate:"omitempty,gt=0"`
	DeliveryTerms    *string   `json:"deliveryTerms,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
}

// CreateLineRequest adds one line to an existing order. UnitPrice and
// DiscountPercent are optional; range checks on them happen in the service
// because decimals carry no validator tags.
type CreateLineRequest struct {
	OrderID         uuid.UUID        `json:"orderId" validate:"required"`
	VariantID       uuid.UUID        `json:"variantId" validate:"required"`
	ColorID         uuid.UUID        `json:"colorId" validate:"required"`
	Quantity        int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercentage,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// UpdateLineRequest patches one line. Nil fields stay unchanged; a change to
// quantity, unit price or discount recomputes the derived amounts.
type UpdateLineRequest struct {
	Quantity        *int64           `json:"quantity,omitempty"`
	UnitPrice       *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercentage,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}
