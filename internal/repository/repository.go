package repository

import (
	"context"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Unknown IDs are
	// silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// VoucherRepository defines the interface for voucher data access operations.
//
// Methods taking a pgx.Tx participate in the order transaction; the rest run
// on the pool.
type VoucherRepository interface {
	// Create inserts a voucher. A duplicate code yields model.ErrVoucherCodeExists.
	Create(ctx context.Context, v *model.Voucher) error

	// Update replaces the editable fields of a voucher. used_count is never
	// written. Returns model.ErrVoucherNotFound when no row matches.
	Update(ctx context.Context, v *model.Voucher) error

	// GetByID returns nil when the voucher does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error)

	// GetByCode looks a voucher up by its normalised code. Returns nil when
	// the voucher does not exist.
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)

	// List returns vouchers ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]model.Voucher, error)

	// GetByCodeForUpdate reads and row-locks a voucher until tx ends.
	GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Voucher, error)

	// Reserve consumes one use. It reports false when the usage limit was
	// already reached at write time.
	Reserve(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// Release returns one use, never taking used_count below zero.
	Release(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Deactivate clears is_active and returns the updated voucher, or nil
	// when it does not exist.
	Deactivate(ctx context.Context, id uuid.UUID) (*model.Voucher, error)

	// Delete removes a voucher that has never been used. It reports false
	// when no unused voucher with the ID exists.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. It returns
	// nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate reads and row-locks an order (without items) until tx ends.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus persists status, admin notes and the voucher counted flag.
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// List returns orders with their items, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}
