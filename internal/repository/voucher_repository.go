package repository

import (
	"context"
	"errors"
	"fmt"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// voucherRepository implements the VoucherRepository interface using PostgreSQL.
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
	}
}

const voucherColumns = `id, code, name, description, discount_type, discount_value,
		min_order_amount, max_discount, free_shipping, usage_limit, used_count,
		start_date, end_date, is_active, created_at, updated_at`

func scanVoucher(row scanner) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID,
		&v.Code,
		&v.Name,
		&v.Description,
		&v.DiscountType,
		&v.DiscountValue,
		&v.MinOrderAmount,
		&v.MaxDiscount,
		&v.FreeShipping,
		&v.UsageLimit,
		&v.UsedCount,
		&v.StartDate,
		&v.EndDate,
		&v.IsActive,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a voucher.
func (r *voucherRepository) Create(ctx context.Context, v *model.Voucher) error {
	query := `
		INSERT INTO vouchers (id, code, name, description, discount_type, discount_value,
			min_order_amount, max_discount, free_shipping, usage_limit, used_count,
			start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.Code, v.Name, v.Description, v.DiscountType, v.DiscountValue,
		v.MinOrderAmount, v.MaxDiscount, v.FreeShipping, v.UsageLimit, v.UsedCount,
		v.StartDate, v.EndDate, v.IsActive, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().Str("code", v.Code).Msg("voucher code already exists")
			return model.ErrVoucherCodeExists
		}
		r.logger.Error().Err(err).Str("code", v.Code).Msg("failed to create voucher")
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	r.logger.Debug().
		Str("voucher_id", v.ID.String()).
		Str("code", v.Code).
		Msg("voucher created successfully")

	return nil
}

// Update replaces the editable fields of a voucher.
func (r *voucherRepository) Update(ctx context.Context, v *model.Voucher) error {
	query := `
		UPDATE vouchers
		SET code = $2, name = $3, description = $4, discount_type = $5, discount_value = $6,
			min_order_amount = $7, max_discount = $8, free_shipping = $9, usage_limit = $10,
			start_date = $11, end_date = $12, is_active = $13, updated_at = $14
		WHERE id = $1
		RETURNING used_count, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		v.ID, v.Code, v.Name, v.Description, v.DiscountType, v.DiscountValue,
		v.MinOrderAmount, v.MaxDiscount, v.FreeShipping, v.UsageLimit,
		v.StartDate, v.EndDate, v.IsActive, v.UpdatedAt,
	).Scan(&v.UsedCount, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVoucherNotFound
		}
		if isUniqueViolation(err) {
			return model.ErrVoucherCodeExists
		}
		r.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to update voucher")
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	return nil
}

// GetByID retrieves a voucher by ID.
func (r *voucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("voucher_id", id.String()).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	return v, nil
}

// GetByCode retrieves a voucher by code.
func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query voucher by code")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	return v, nil
}

// List returns vouchers, newest first.
func (r *voucherRepository) List(ctx context.Context, limit, offset int) ([]model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		ORDER BY created_at DESC, code
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query vouchers")
		return nil, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher row")
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, nil
}

// GetByCodeForUpdate reads a voucher and holds its row lock until tx ends.
// Concurrent order creations for the same code queue here.
func (r *voucherRepository) GetByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1 FOR UPDATE`

	v, err := scanVoucher(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to lock voucher")
		return nil, fmt.Errorf("failed to lock voucher: %w", err)
	}

	return v, nil
}

// Reserve consumes one use of the voucher. The limit is re-checked in the
// statement itself.
func (r *voucherRepository) Reserve(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE vouchers
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to reserve voucher")
		return false, fmt.Errorf("failed to reserve voucher: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Release returns one use of the voucher.
func (r *voucherRepository) Release(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE vouchers
		SET used_count = GREATEST(used_count - 1, 0), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, id); err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to release voucher")
		return fmt.Errorf("failed to release voucher: %w", err)
	}

	return nil
}

// Deactivate clears is_active without touching used_count.
func (r *voucherRepository) Deactivate(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	query := `
		UPDATE vouchers
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + voucherColumns

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to deactivate voucher")
		return nil, fmt.Errorf("failed to deactivate voucher: %w", err)
	}

	return v, nil
}

// Delete removes an unused voucher.
func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vouchers WHERE id = $1 AND used_count = 0`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to delete voucher")
		return false, fmt.Errorf("failed to delete voucher: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
