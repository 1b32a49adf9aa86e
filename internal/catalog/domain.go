// Package catalog holds the vehicle reference data: brands, models, variants
// and paint colors. The ordering workflow resolves variants and colors here.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Model struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brandId"`
	Name      string    `json:"name"`
	Segment   *string   `json:"segment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Variant is one orderable configuration of a model. BasePrice is the list
// price quotation generation falls back to when an order line has none.
type Variant struct {
	ID         uuid.UUID       `json:"id"`
	ModelID    uuid.UUID       `json:"modelId"`
	Name       string          `json:"name"`
	BatteryKWh *decimal.Decimal `json:"batteryKwh,omitempty"`
	RangeKm    *int            `json:"rangeKm,omitempty"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Color struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	HexCode   *string   `json:"hexCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateBrandRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Country *string `json:"country,omitempty" validate:"omitempty,len=2"`
}

type CreateModelRequest struct {
	BrandID uuid.UUID `json:"brandId" validate:"required"`
	Name    string    `json:"name" validate:"required,max=100"`
	Segment *string   `json:"segment,omitempty" validate:"omitempty,max=50"`
}

type CreateVariantRequest struct {
	ModelID    uuid.UUID        `json:"modelId" validate:"required"`
	Name       string           `json:"name" validate:"required,max=100"`
	BatteryKWh *decimal.Decimal `json:"batteryKwh,omitempty"`
	RangeKm    *int             `json:"rangeKm,omitempty" validate:"omitempty,gt=0"`
	BasePrice  decimal.Decimal  `json:"basePrice"`
}

type CreateColorRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	HexCode *string `json:"hexCode,omitempty" validate:"omitempty,hexcolor"`
}
