// Package dealers manages the dealer accounts that place wholesale orders.
package dealers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltara-ev/voltara/internal/shared"
)

type Dealer struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Email            *string          `json:"email,omitempty"`
	Phone            *string          `json:"phone,omitempty"`
	City             *string          `json:"city,omitempty"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty"`
	PaymentTermsDays int              `json:"paymentTermsDays"`
	IsActive         bool             `json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type CreateDealerRequest struct {
	Code             string           `json:"code" validate:"required,max=50"`
	Name             string           `json:"name" validate:"required,max=200"`
	Email            *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string          `json:"phone,omitempty" validate:"omitempty,max=50"`
	City             *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty"`
	PaymentTermsDays int              `json:"paymentTermsDays" validate:"gte=0,lte=365"`
}

type ListDealersRequest struct {
	IsActive *bool
	Page     shared.Page
}

type DealerPage struct {
	Dealers    []Dealer          `json:"dealers"`
	Pagination shared.Pagination `json:"pagination"`
}
