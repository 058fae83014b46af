package service

import (
	"context"
	"time"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("order-desk/internal/service")

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// VoucherService is the voucher catalog. Catalog writes require an admin
// principal; Validate is open to any authenticated caller.
type VoucherService interface {
	// List returns vouchers, newest first.
	List(ctx context.Context, p model.Principal, limit, offset int) ([]model.Voucher, error)

	// Get returns a voucher or model.ErrVoucherNotFound.
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Voucher, error)

	// Create adds a voucher with used_count 0.
	Create(ctx context.Context, p model.Principal, req *model.VoucherRequest) (*model.Voucher, error)

	// Update replaces the definition of a voucher. Existing orders keep their
	// snapshotted discount.
	Update(ctx context.Context, p model.Principal, id uuid.UUID, req *model.VoucherRequest) (*model.Voucher, error)

	// Deactivate soft-disables a voucher without touching used_count.
	Deactivate(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Voucher, error)

	// Delete hard-deletes a voucher that was never used. Used vouchers fail
	// with model.ErrVoucherHasUsageHistory.
	Delete(ctx context.Context, p model.Principal, id uuid.UUID) error

	// Validate previews a code against a cart subtotal without reserving it.
	Validate(ctx context.Context, req *model.ValidateVoucherRequest) (*model.VoucherValidation, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Create places a pending order for the principal, reserving the voucher
	// when a code is given.
	Create(ctx context.Context, p model.Principal, req *model.OrderRequest) (*model.Order, error)

	// Get returns an order visible to the principal.
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Order, error)

	// List returns orders visible to the principal.
	List(ctx context.Context, p model.Principal, filter model.OrderFilter) ([]model.Order, error)

	// Approve moves a pending order to approved.
	Approve(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Order, error)

	// Deny moves a pending order to denied and returns its voucher use.
	Deny(ctx context.Context, p model.Principal, id uuid.UUID, reason string) (*model.DenyResult, error)
}

// clampPage normalises limit/offset the same way for every listing.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func requireAdmin(p model.Principal) error {
	if p.Role == "" {
		return model.ErrUnauthorised
	}
	if !p.IsAdmin() {
		return model.ErrForbidden
	}
	return nil
}
