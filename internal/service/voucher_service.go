package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"order-desk/internal/model"
	"order-desk/internal/pricing"
	"order-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// voucherService implements VoucherService.
type voucherService struct {
	voucherRepo repository.VoucherRepository
	now         Clock
	logger      zerolog.Logger
}

// NewVoucherService creates a new voucher service. A nil clock means time.Now.
func NewVoucherService(voucherRepo repository.VoucherRepository, now Clock, logger zerolog.Logger) VoucherService {
	if now == nil {
		now = time.Now
	}
	return &voucherService{
		voucherRepo: voucherRepo,
		now:         now,
		logger:      logger.With().Str("service", "voucher").Logger(),
	}
}

// List returns vouchers, newest first.
func (s *voucherService) List(ctx context.Context, p model.Principal, limit, offset int) ([]model.Voucher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset)
	vouchers, err := s.voucherRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to list vouchers")
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	return vouchers, nil
}

// Get returns a single voucher.
func (s *voucherService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Voucher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *voucherService) get(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	v, err := s.voucherRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", id.String()).Msg("failed to get voucher")
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	if v == nil {
		return nil, model.ErrVoucherNotFound
	}
	return v, nil
}

// Create adds a voucher to the catalog.
func (s *voucherService) Create(ctx context.Context, p model.Principal, req *model.VoucherRequest) (*model.Voucher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateVoucherRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	v := &model.Voucher{ID: uuid.New(), IsActive: true, CreatedAt: now}
	applyVoucherRequest(v, req, now)

	if err := s.voucherRepo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("voucher_id", v.ID.String()).
		Str("code", v.Code).
		Str("admin", p.UserID).
		Msg("voucher created")

	return v, nil
}

// Update replaces the definition of an existing voucher.
func (s *voucherService) Update(ctx context.Context, p model.Principal, id uuid.UUID, req *model.VoucherRequest) (*model.Voucher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateVoucherRequest(req); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyVoucherRequest(current, req, s.now())
	if err := s.voucherRepo.Update(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("voucher_id", id.String()).
		Str("code", current.Code).
		Str("admin", p.UserID).
		Msg("voucher updated")

	return current, nil
}

// Deactivate soft-disables a voucher.
func (s *voucherService) Deactivate(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Voucher, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	v, err := s.voucherRepo.Deactivate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate voucher: %w", err)
	}
	if v == nil {
		return nil, model.ErrVoucherNotFound
	}

	s.logger.Info().
		Str("voucher_id", id.String()).
		Int("used_count", v.UsedCount).
		Str("admin", p.UserID).
		Msg("voucher deactivated")

	return v, nil
}

// Delete removes a voucher that has no usage history.
func (s *voucherService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}

	v, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if v.UsedCount > 0 {
		s.logger.Warn().
			Str("voucher_id", id.String()).
			Int("used_count", v.UsedCount).
			Msg("refusing to delete voucher with usage history")
		return model.ErrVoucherHasUsageHistory
	}

	deleted, err := s.voucherRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}
	if !deleted {
		// A checkout reserved it between the read and the delete.
		return model.ErrVoucherHasUsageHistory
	}

	s.logger.Info().Str("voucher_id", id.String()).Str("admin", p.UserID).Msg("voucher deleted")
	return nil
}

// Validate previews a voucher against a subtotal.
func (s *voucherService) Validate(ctx context.Context, req *model.ValidateVoucherRequest) (*model.VoucherValidation, error) {
	if req == nil {
		return nil, model.InvalidInput("validation request is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Subtotal.IsNegative() {
		return nil, model.InvalidInput("subtotal must not be negative")
	}

	code := model.NormalizeCode(req.Code)
	v, err := s.voucherRepo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to look up voucher")
		return nil, fmt.Errorf("failed to look up voucher: %w", err)
	}

	result, err := pricing.Evaluate(v, req.Subtotal, s.now())
	if err != nil {
		s.logger.Debug().Str("code", code).Err(err).Msg("voucher rejected")
		return nil, err
	}

	return result, nil
}

// applyVoucherRequest copies the request onto v. An omitted isActive keeps
// the current state.
func applyVoucherRequest(v *model.Voucher, req *model.VoucherRequest, now time.Time) {
	v.Code = model.NormalizeCode(req.Code)
	v.Name = strings.TrimSpace(req.Name)
	v.Description = strings.TrimSpace(req.Description)
	v.DiscountType = req.DiscountType
	v.DiscountValue = req.DiscountValue
	v.MinOrderAmount = req.MinOrderAmount
	v.MaxDiscount = req.MaxDiscount
	v.FreeShipping = req.FreeShipping
	v.UsageLimit = req.UsageLimit
	v.StartDate = req.StartDate
	v.EndDate = req.EndDate
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	v.UpdatedAt = now
}
