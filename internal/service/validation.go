package service

import (
	"errors"
	"fmt"
	"strings"

	"order-desk/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	hundred = decimal.NewFromInt(100)

	// maxAmount is the largest value a NUMERIC(12,2) column holds.
	maxAmount = decimal.RequireFromString("9999999999.99")
)

// checkAmount rejects money values the database would round or overflow.
func checkAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return model.InvalidInput(field + " must have at most 2 decimal places")
	}
	if d.Abs().GreaterThan(maxAmount) {
		return model.InvalidInput(field + " is too large")
	}
	return nil
}

// validateStruct runs the struct tags and converts failures into a single
// INVALID_INPUT error naming the offending fields.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.InvalidInput(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return model.InvalidInput(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries or characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// validateVoucherRequest checks the tags plus the money and window rules
// the tags cannot express.
func validateVoucherRequest(req *model.VoucherRequest) error {
	if req == nil {
		return model.InvalidInput("voucher request is required")
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	if !req.DiscountValue.IsPositive() {
		return model.InvalidInput("discountValue must be positive")
	}
	if req.DiscountType == model.DiscountPercentage && req.DiscountValue.GreaterThan(hundred) {
		return model.InvalidInput("percentage discountValue must not exceed 100")
	}
	if req.MinOrderAmount.IsNegative() {
		return model.InvalidInput("minOrderAmount must not be negative")
	}
	if req.MaxDiscount != nil && !req.MaxDiscount.IsPositive() {
		return model.InvalidInput("maxDiscount must be positive when set")
	}
	if err := checkAmount("discountValue", req.DiscountValue); err != nil {
		return err
	}
	if err := checkAmount("minOrderAmount", req.MinOrderAmount); err != nil {
		return err
	}
	if req.MaxDiscount != nil {
		if err := checkAmount("maxDiscount", *req.MaxDiscount); err != nil {
			return err
		}
	}
	if !req.StartDate.Before(req.EndDate) {
		return model.InvalidInput("startDate must be before endDate")
	}
	if model.NormalizeCode(req.Code) == "" || strings.ContainsAny(model.NormalizeCode(req.Code), " \t\r\n") {
		return model.InvalidInput("code must be a single word")
	}

	return nil
}

// validateOrderRequest checks the tags plus the delivery fee rules.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.InvalidInput("order request is required")
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	if err := checkAmount("deliveryFee", req.DeliveryFee); err != nil {
		return err
	}

	switch req.DeliveryType {
	case model.DeliveryDelivery:
		if !req.DeliveryFee.IsPositive() {
			return model.InvalidInput("deliveryFee must be positive for delivery orders")
		}
	case model.DeliveryPickup:
		if !req.DeliveryFee.IsZero() {
			return model.InvalidInput("deliveryFee must be zero for pickup orders")
		}
	}

	return nil
}
