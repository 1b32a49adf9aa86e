// Package orders holds dealer order headers and their line items, and runs
// admission control on every line creation.
package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order header.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderClosed    OrderStatus = "CLOSED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// LineStatus is the lifecycle state of one order line.
type LineStatus string

const (
	LinePending   LineStatus = "PENDING"
	LineConfirmed LineStatus = "CONFIRMED"
	LineDelivered LineStatus = "DELIVERED"
	LineCancelled LineStatus = "CANCELLED"
)

// Order is a dealer's bulk purchase header. Lines hang off it.
type Order struct {
	ID               uuid.UUID   `json:"id"`
	DealerID         uuid.UUID   `json:"dealerId"`
	OrderNumber      string      `json:"orderNumber"`
	Status           OrderStatus `json:"status"`
	PaymentTermsDays *int        `json:"paymentTermsDays,omitempty"`
	DeliveryTerms    *string     `json:"deliveryTerms,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// OrderLine is one (variant, color, quantity) request within an order.
// TotalPrice, DiscountAmount and FinalPrice are derived from UnitPrice,
// Quantity and DiscountPercentage and recomputed whenever any of those
// change. A nil UnitPrice means the dealer left pricing to the quotation
// stage; derived amounts are zero until then.
type OrderLine struct {
	ID                 uuid.UUID        `json:"id"`
	OrderID            uuid.UUID        `json:"orderId"`
	VariantID          uuid.UUID        `json:"variantId"`
	ColorID            uuid.UUID        `json:"colorId"`
	Quantity           int64            `json:"quantity"`
	UnitPrice          *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	TotalPrice         decimal.Decimal  `json:"totalPrice"`
	DiscountAmount     decimal.Decimal  `json:"discountAmount"`
	FinalPrice         decimal.Decimal  `json:"finalPrice"`
	Status             LineStatus       `json:"status"`
	Notes              *string          `json:"notes,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Totals is the order-level aggregate over a set of lines.
type Totals struct {
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalQuantity int64           `json:"totalQuantity"`
}

// OrderSummary pairs an order with its lines and their aggregate.
type OrderSummary struct {
	Order  Order       `json:"order"`
	Lines  []OrderLine `json:"lines"`
	Totals Totals      `json:"totals"`
}
