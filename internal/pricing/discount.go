// Package pricing holds the pure money rules of the engine: voucher
// eligibility, discount computation and order totals. Nothing here performs
// I/O, so the same rules apply at checkout, in cart previews and in tests.
package pricing

import (
	"order-desk/internal/model"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places of the currency.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// Discount computes the discount a voucher grants on the given subtotal.
//
// Percentage vouchers take subtotal*value/100, capped at MaxDiscount when set.
// Fixed vouchers never exceed the subtotal. The result is rounded to the
// currency's minor unit, half-up.
func Discount(v *model.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	if v == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch v.DiscountType {
	case model.DiscountPercentage:
		amount = subtotal.Mul(v.DiscountValue).Div(hundred)
		if v.MaxDiscount != nil {
			amount = decimal.Min(amount, *v.MaxDiscount)
		}
	case model.DiscountFixed:
		amount = decimal.Min(v.DiscountValue, subtotal)
	default:
		return decimal.Zero
	}

	return Round(floorAtZero(amount))
}

// Round rounds an amount to the currency's minor unit. Amounts handled by the
// engine are non-negative, where half-away-from-zero equals half-up.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnits)
}

func floorAtZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
