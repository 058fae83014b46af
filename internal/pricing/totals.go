package pricing

import (
	"order-desk/internal/model"

	"github.com/shopspring/decimal"
)

// Totals is the computed money breakdown of an order.
type Totals struct {
	Subtotal       decimal.Decimal
	DeliveryFee    decimal.Decimal
	ShippingWaived bool
	Discount       decimal.Decimal
	Total          decimal.Decimal
}

// LineSubtotal returns quantity * unit price for a line item.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Subtotal sums the line subtotals of the items.
func Subtotal(items []model.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// ComputeTotals applies the order formula
//
//	total = subtotal + delivery fee - discount, floored at 0
//
// where the delivery fee is zeroed when the voucher grants free shipping.
func ComputeTotals(items []model.OrderItem, deliveryFee, discount decimal.Decimal, freeShipping bool) Totals {
	t := Totals{
		Subtotal:    Subtotal(items),
		DeliveryFee: Round(deliveryFee),
		Discount:    Round(discount),
	}

	if freeShipping && t.DeliveryFee.IsPositive() {
		t.DeliveryFee = decimal.Zero
		t.ShippingWaived = true
	}

	t.Total = floorAtZero(t.Subtotal.Add(t.DeliveryFee).Sub(t.Discount))
	return t
}
