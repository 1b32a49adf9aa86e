// Package pricing computes line-level amounts for orders, quotations and
// invoices using exact decimal arithmetic.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Breakdown carries the derived amounts for one priced line.
type Breakdown struct {
	TotalPrice     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
}

// Compute derives total, discount and final price from a unit price, quantity
// and discount percentage. It never fails: a nil unit price counts as zero so
// downstream totals stay computable, and a negative discount counts as zero.
// The discount amount is rounded to 2 decimal places, half up.
func Compute(unitPrice *decimal.Decimal, quantity int64, discountPercent decimal.Decimal) Breakdown {
	price := decimal.Zero
	if unitPrice != nil && unitPrice.IsPositive() {
		price = *unitPrice
	}
	if quantity < 0 {
		quantity = 0
	}
	if discountPercent.IsNegative() {
		discountPercent = decimal.Zero
	}

	total := price.Mul(decimal.NewFromInt(quantity))
	discount := total.Mul(discountPercent).Div(hundred).Round(2)
	return Breakdown{
		TotalPrice:     total,
		DiscountAmount: discount,
		FinalPrice:     total.Sub(discount),
	}
}

// HeaderDiscount computes a document-level discount amount from a subtotal,
// rounded to 2 decimal places, half up. A non-positive percentage yields zero.
func HeaderDiscount(subtotal, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.IsPositive() {
		return decimal.Zero
	}
	return subtotal.Mul(discountPercent).Div(hundred).Round(2)
}
