// Package inventory tracks physical vehicle units and guards order intake
// against overselling.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// UnitStatus is the lifecycle state of a physical vehicle unit.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitReserved  UnitStatus = "RESERVED"
	UnitSold      UnitStatus = "SOLD"
)

// VehicleUnit is one physical vehicle identified by VIN.
type VehicleUnit struct {
	ID         uuid.UUID  `json:"id"`
	VariantID  uuid.UUID  `json:"variantId"`
	ColorID    uuid.UUID  `json:"colorId"`
	VIN        string     `json:"vin"`
	Status     UnitStatus `json:"status"`
	ReceivedAt time.Time  `json:"receivedAt"`
	SoldAt     *time.Time `json:"soldAt,omitempty"`
}

// ReceiveUnitsRequest records a factory intake batch for one variant and color.
type ReceiveUnitsRequest struct {
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	ColorID   uuid.UUID `json:"colorId" validate:"required"`
	VINs      []string  `json:"vins" validate:"required,min=1,dive,required"`
}

// AvailabilitySnapshot is the read-side view of sellable stock for a variant
// and color pair. Pending counts quantity committed to order lines not yet
// delivered or cancelled, across all colors of the variant.
type AvailabilitySnapshot struct {
	VariantID uuid.UUID `json:"variantId"`
	ColorID   uuid.UUID `json:"colorId"`
	Available int64     `json:"available"`
	Pending   int64     `json:"pending"`
	TakenAt   time.Time `json:"takenAt"`
}
