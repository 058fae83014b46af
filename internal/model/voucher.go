package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a voucher's discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a supported discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Voucher is a discount code with eligibility rules and a usage cap.
type Voucher struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	Code           string           `json:"code" db:"code"`
	Name           string           `json:"name" db:"name"`
	Description    string           `json:"description" db:"description"`
	DiscountType   DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount" db:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	FreeShipping   bool             `json:"freeShipping" db:"free_shipping"`
	UsageLimit     *int             `json:"usageLimit,omitempty" db:"usage_limit"`
	UsedCount      int              `json:"usedCount" db:"used_count"`
	StartDate      time.Time        `json:"startDate" db:"start_date"`
	EndDate        time.Time        `json:"endDate" db:"end_date"`
	IsActive       bool             `json:"isActive" db:"is_active"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// LimitReached reports whether the voucher has no remaining uses.
func (v *Voucher) LimitReached() bool {
	return v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit
}

// NormalizeCode canonicalises a voucher code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// VoucherRequest is the payload for creating or replacing a voucher.
type VoucherRequest struct {
	Code           string           `json:"code" validate:"required,min=3,max=64"`
	Name           string           `json:"name" validate:"required,max=255"`
	Description    string           `json:"description" validate:"max=2000"`
	DiscountType   DiscountType     `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue  decimal.Decimal  `json:"discountValue"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount,omitempty"`
	FreeShipping   bool             `json:"freeShipping"`
	UsageLimit     *int             `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	StartDate      time.Time        `json:"startDate" validate:"required"`
	EndDate        time.Time        `json:"endDate" validate:"required"`
	IsActive       *bool            `json:"isActive,omitempty"`
}

// ValidateVoucherRequest is the payload for previewing a voucher against a cart.
type ValidateVoucherRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// VoucherValidation is the result of a successful voucher check.
type VoucherValidation struct {
	Voucher      *Voucher        `json:"voucher"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"freeShipping"`
}
