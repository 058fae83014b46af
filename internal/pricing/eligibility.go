package pricing

import (
	"time"

	"order-desk/internal/model"

	"github.com/shopspring/decimal"
)

// CheckEligibility evaluates the voucher rules against an order subtotal at
// the given instant. Checks run in a fixed order and the first failure is
// returned: not found, inactive, not yet started, expired, usage limit
// reached, below minimum order.
func CheckEligibility(v *model.Voucher, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case v == nil:
		return model.ErrVoucherNotFound
	case !v.IsActive:
		return model.ErrVoucherInactive
	case now.Before(v.StartDate):
		return model.ErrVoucherNotYetStarted
	case now.After(v.EndDate):
		return model.ErrVoucherExpired
	case v.LimitReached():
		return model.ErrVoucherUsageLimitReached
	case subtotal.LessThan(v.MinOrderAmount):
		return model.ErrVoucherBelowMinimumOrder
	}
	return nil
}

// Evaluate runs CheckEligibility and, on success, computes the discount.
func Evaluate(v *model.Voucher, subtotal decimal.Decimal, now time.Time) (*model.VoucherValidation, error) {
	if err := CheckEligibility(v, subtotal, now); err != nil {
		return nil, err
	}
	return &model.VoucherValidation{
		Voucher:      v,
		Discount:     Discount(v, subtotal),
		FreeShipping: v.FreeShipping,
	}, nil
}
