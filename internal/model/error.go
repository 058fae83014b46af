package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Error codes shared by the service layer and the HTTP API.
const (
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeInvalidInput = "INVALID_INPUT"

	ErrCodeVoucherNotFound          = "VOUCHER_NOT_FOUND"
	ErrCodeVoucherInactive          = "VOUCHER_INACTIVE"
	ErrCodeVoucherNotYetStarted     = "VOUCHER_NOT_YET_STARTED"
	ErrCodeVoucherExpired           = "VOUCHER_EXPIRED"
	ErrCodeVoucherUsageLimitReached = "VOUCHER_USAGE_LIMIT_REACHED"
	ErrCodeVoucherBelowMinimumOrder = "VOUCHER_BELOW_MINIMUM_ORDER"
	ErrCodeVoucherHasUsageHistory   = "VOUCHER_HAS_USAGE_HISTORY"
	ErrCodeVoucherCodeExists        = "VOUCHER_CODE_EXISTS"

	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeMissingDenyReason = "MISSING_DENY_REASON"

	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// DomainError is a recoverable, user-facing business error.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, model.ErrVoucherExpired) works for errors built with
// NewDomainError or wrapped with fmt.Errorf.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// InvalidInput returns an INVALID_INPUT error carrying the given message.
func InvalidInput(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidInput, message)
}

// Voucher rejections, in the order the catalog evaluates them.
var (
	ErrVoucherNotFound          = NewDomainError(ErrCodeVoucherNotFound, "Voucher not found")
	ErrVoucherInactive          = NewDomainError(ErrCodeVoucherInactive, "Voucher is not active")
	ErrVoucherNotYetStarted     = NewDomainError(ErrCodeVoucherNotYetStarted, "Voucher is not valid yet")
	ErrVoucherExpired           = NewDomainError(ErrCodeVoucherExpired, "Voucher has expired")
	ErrVoucherUsageLimitReached = NewDomainError(ErrCodeVoucherUsageLimitReached, "Voucher usage limit has been reached")
	ErrVoucherBelowMinimumOrder = NewDomainError(ErrCodeVoucherBelowMinimumOrder, "Order subtotal is below the voucher minimum")
)

// Catalog and lifecycle errors
var (
	ErrVoucherHasUsageHistory = NewDomainError(ErrCodeVoucherHasUsageHistory, "Voucher has been used and cannot be deleted; deactivate it instead")
	ErrVoucherCodeExists      = NewDomainError(ErrCodeVoucherCodeExists, "A voucher with this code already exists")
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidTransition      = NewDomainError(ErrCodeInvalidTransition, "Order is no longer pending")
	ErrMissingDenyReason      = NewDomainError(ErrCodeMissingDenyReason, "A reason is required to deny an order")
	ErrProductNotFound        = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrUnauthorised           = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden              = NewDomainError(ErrCodeForbidden, "Not allowed to perform this operation")
)
