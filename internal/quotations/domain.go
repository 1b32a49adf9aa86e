// Package quotations implements quotation generation from orders and the
// quotation state machine through to invoice conversion.
package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltara-ev/voltara/internal/pricing"
)

// QuotationStatus is the lifecycle state of a quotation.
type QuotationStatus string

const (
	StatusPending   QuotationStatus = "PENDING"
	StatusSent      QuotationStatus = "SENT"
	StatusAccepted  QuotationStatus = "ACCEPTED"
	StatusRejected  QuotationStatus = "REJECTED"
	StatusExpired   QuotationStatus = "EXPIRED"
	StatusConverted QuotationStatus = "CONVERTED"
)

// Active reports whether the status blocks creation of another quotation for
// the same order.
func (s QuotationStatus) Active() bool {
	return s == StatusPending || s == StatusSent
}

// Terminal reports whether no further transition leaves the status.
func (s QuotationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusConverted
}

// DefaultValidityDays applies when generation does not override validity.
const DefaultValidityDays = 30

// Quotation is a priced, time-bounded proposal derived from one order.
// Subtotal is the sum of its lines' total price; TotalAmount subtracts the
// header discount driven by DiscountPercentage when one was given.
type Quotation struct {
	ID                 uuid.UUID        `json:"id"`
	SourceOrderID      uuid.UUID        `json:"sourceOrderId"`
	QuotationNumber    string           `json:"quotationNumber"`
	Status             QuotationStatus  `json:"status"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountAmount     decimal.Decimal  `json:"discountAmount"`
	TotalAmount        decimal.Decimal  `json:"totalAmount"`
	ValidityDays       int              `json:"validityDays"`
	QuotationDate      time.Time        `json:"quotationDate"`
	ExpiryDate         time.Time        `json:"expiryDate"`
	PaymentTermsDays   int              `json:"paymentTermsDays"`
	DeliveryTerms      *string          `json:"deliveryTerms,omitempty"`
	StaffID            *uuid.UUID       `json:"staffId,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	AcceptedAt         *time.Time       `json:"acceptedAt,omitempty"`
	RejectedAt         *time.Time       `json:"rejectedAt,omitempty"`
	RejectionReason    *string          `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// QuotationLine is a point-in-time snapshot of an order line at generation.
// Variant, color and quantity never change after creation.
type QuotationLine struct {
	ID                 uuid.UUID        `json:"id"`
	QuotationID        uuid.UUID        `json:"quotationId"`
	VariantID          uuid.UUID        `json:"variantId"`
	ColorID            uuid.UUID        `json:"colorId"`
	Quantity           int64            `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unitPrice"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	TotalPrice         decimal.Decimal  `json:"totalPrice"`
	DiscountAmount     decimal.Decimal  `json:"discountAmount"`
	FinalPrice         decimal.Decimal  `json:"finalPrice"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// NewLine builds a snapshot line with all pricing inputs at once and computes
// the derived amounts exactly once. There is no mutable pricing state on a
// line after construction.
func NewLine(quotationID, variantID, colorID uuid.UUID, quantity int64, unitPrice decimal.Decimal, discountPercent *decimal.Decimal, createdAt time.Time) QuotationLine {
	pct := decimal.Zero
	if discountPercent != nil {
		pct = *discountPercent
	}
	b := pricing.Compute(&unitPrice, quantity, pct)
	return QuotationLine{
		ID:                 uuid.New(),
		QuotationID:        quotationID,
		VariantID:          variantID,
		ColorID:            colorID,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		DiscountPercentage: discountPercent,
		TotalPrice:         b.TotalPrice,
		DiscountAmount:     b.DiscountAmount,
		FinalPrice:         b.FinalPrice,
		CreatedAt:          createdAt,
	}
}

// OrderLineSnapshot is the slice of an order line that generation reads
// inside its transaction.
type OrderLineSnapshot struct {
	VariantID          uuid.UUID
	ColorID            uuid.UUID
	Quantity           int64
	UnitPrice          *decimal.Decimal
	DiscountPercentage *decimal.Decimal
}

// OrderTerms is the slice of an order header that generation copies onto the
// quotation.
type OrderTerms struct {
	DealerID         uuid.UUID
	PaymentTermsDays *int
	DeliveryTerms    *string
}
