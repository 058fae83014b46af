package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func validVoucherRequest() *model.VoucherRequest {
	return &model.VoucherRequest{
		Code:          "  summer10 ",
		Name:          "Summer sale",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     fixedNow.Add(-24 * time.Hour),
		EndDate:       fixedNow.Add(24 * time.Hour),
	}
}

func activeVoucher(code string) *model.Voucher {
	return &model.Voucher{
		ID:            uuid.New(),
		Code:          code,
		Name:          code,
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     fixedNow.Add(-24 * time.Hour),
		EndDate:       fixedNow.Add(24 * time.Hour),
		IsActive:      true,
	}
}

func TestVoucherService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	repo.On("Create", ctx, mock.MatchedBy(func(v *model.Voucher) bool {
		return v.Code == "SUMMER10" && v.IsActive && v.UsedCount == 0 && v.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	v, err := service.Create(ctx, admin, validVoucherRequest())

	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", v.Code)
	assert.NotEqual(t, uuid.Nil, v.ID)
	repo.AssertExpectations(t)
}

func TestVoucherService_Create_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		principal model.Principal
		mutate    func(r *model.VoucherRequest)
		wantErr   error
	}{
		{
			name:      "Customer cannot create",
			principal: customer,
			wantErr:   model.ErrForbidden,
		},
		{
			name:    "Anonymous cannot create",
			wantErr: model.ErrUnauthorised,
		},
		{
			name:      "Missing name",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.Name = "" },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Unknown discount type",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.DiscountType = "bogus" },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Zero discount value",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.DiscountValue = decimal.Zero },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Percentage above 100",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.DiscountValue = decimal.NewFromInt(101) },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Negative minimum",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.MinOrderAmount = decimal.NewFromInt(-1) },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Zero max discount",
			principal: admin,
			mutate: func(r *model.VoucherRequest) {
				zero := decimal.Zero
				r.MaxDiscount = &zero
			},
			wantErr: model.InvalidInput(""),
		},
		{
			name:      "Zero usage limit",
			principal: admin,
			mutate: func(r *model.VoucherRequest) {
				limit := 0
				r.UsageLimit = &limit
			},
			wantErr: model.InvalidInput(""),
		},
		{
			name:      "End before start",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.EndDate = r.StartDate },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Code with spaces",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.Code = "TWO WORDS" },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Discount value below a cent",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.DiscountValue = decimal.RequireFromString("12.345") },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Minimum order below a cent",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.MinOrderAmount = decimal.RequireFromString("49.995") },
			wantErr:   model.InvalidInput(""),
		},
		{
			name:      "Max discount below a cent",
			principal: admin,
			mutate: func(r *model.VoucherRequest) {
				capped := decimal.RequireFromString("5.001")
				r.MaxDiscount = &capped
			},
			wantErr: model.InvalidInput(""),
		},
		{
			name:      "Minimum order out of range",
			principal: admin,
			mutate:    func(r *model.VoucherRequest) { r.MinOrderAmount = decimal.RequireFromString("10000000000") },
			wantErr:   model.InvalidInput(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockVoucherRepository)
			service := NewVoucherService(repo, fixedClock, zerolog.Nop())

			req := validVoucherRequest()
			if tt.mutate != nil {
				tt.mutate(req)
			}

			v, err := service.Create(ctx, tt.principal, req)

			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestVoucherService_Create_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	repo.On("Create", ctx, mock.Anything).Return(model.ErrVoucherCodeExists)

	_, err := service.Create(ctx, admin, validVoucherRequest())

	assert.ErrorIs(t, err, model.ErrVoucherCodeExists)
}

func TestVoucherService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	current := activeVoucher("OLD")
	current.UsedCount = 4
	repo.On("GetByID", ctx, current.ID).Return(current, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(v *model.Voucher) bool {
		return v.ID == current.ID && v.Code == "SUMMER10" && v.UsedCount == 4
	})).Return(nil)

	v, err := service.Update(ctx, admin, current.ID, validVoucherRequest())

	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", v.Code)
	assert.Equal(t, 4, v.UsedCount)
	repo.AssertExpectations(t)
}

func TestVoucherService_Create_TrailingZerosAccepted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	repo.On("Create", ctx, mock.Anything).Return(nil)

	req := validVoucherRequest()
	req.DiscountValue = decimal.RequireFromString("12.500")

	v, err := service.Create(ctx, admin, req)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(v.DiscountValue))
}

func TestVoucherService_Update_KeepsActiveState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		isActive   *bool
		wasActive  bool
		wantActive bool
	}{
		{name: "Deactivated stays inactive when omitted", wasActive: false, wantActive: false},
		{name: "Active stays active when omitted", wasActive: true, wantActive: true},
		{name: "Explicit reactivation", isActive: boolPtr(true), wasActive: false, wantActive: true},
		{name: "Explicit deactivation", isActive: boolPtr(false), wasActive: true, wantActive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockVoucherRepository)
			service := NewVoucherService(repo, fixedClock, zerolog.Nop())

			current := activeVoucher("SUMMER10")
			current.IsActive = tt.wasActive
			current.UsedCount = 3
			repo.On("GetByID", ctx, current.ID).Return(current, nil)
			repo.On("Update", ctx, mock.Anything).Return(nil)

			req := validVoucherRequest()
			req.Name = "Renamed sale"
			req.IsActive = tt.isActive

			v, err := service.Update(ctx, admin, current.ID, req)

			require.NoError(t, err)
			assert.Equal(t, "Renamed sale", v.Name)
			assert.Equal(t, tt.wantActive, v.IsActive)
			assert.Equal(t, 3, v.UsedCount)
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestVoucherService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, nil)

	_, err := service.Update(ctx, admin, id, validVoucherRequest())

	assert.ErrorIs(t, err, model.ErrVoucherNotFound)
}

func TestVoucherService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps usage count", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		service := NewVoucherService(repo, fixedClock, zerolog.Nop())

		v := activeVoucher("USED")
		v.IsActive = false
		v.UsedCount = 7
		repo.On("Deactivate", ctx, v.ID).Return(v, nil)

		got, err := service.Deactivate(ctx, admin, v.ID)

		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, 7, got.UsedCount)
	})

	t.Run("Not found", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		service := NewVoucherService(repo, fixedClock, zerolog.Nop())

		id := uuid.New()
		repo.On("Deactivate", ctx, id).Return(nil, nil)

		_, err := service.Deactivate(ctx, admin, id)
		assert.ErrorIs(t, err, model.ErrVoucherNotFound)
	})

	t.Run("Customer forbidden", func(t *testing.T) {
		repo := new(MockVoucherRepository)
		service := NewVoucherService(repo, fixedClock, zerolog.Nop())

		_, err := service.Deactivate(ctx, customer, uuid.New())
		assert.ErrorIs(t, err, model.ErrForbidden)
		repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
	})
}

func TestVoucherService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		usedCount  int
		found      bool
		deleted    bool
		expectCall bool
		wantErr    error
	}{
		{name: "Unused voucher is deleted", found: true, deleted: true, expectCall: true},
		{name: "Used voucher is refused", usedCount: 1, found: true, wantErr: model.ErrVoucherHasUsageHistory},
		{name: "Reserved concurrently", found: true, deleted: false, expectCall: true, wantErr: model.ErrVoucherHasUsageHistory},
		{name: "Unknown voucher", wantErr: model.ErrVoucherNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockVoucherRepository)
			service := NewVoucherService(repo, fixedClock, zerolog.Nop())

			v := activeVoucher("DEL")
			v.UsedCount = tt.usedCount
			if tt.found {
				repo.On("GetByID", ctx, v.ID).Return(v, nil)
			} else {
				repo.On("GetByID", ctx, v.ID).Return(nil, nil)
			}
			if tt.expectCall {
				repo.On("Delete", ctx, v.ID).Return(tt.deleted, nil)
			}

			err := service.Delete(ctx, admin, v.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if !tt.expectCall {
				repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestVoucherService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	repo.On("List", ctx, 100, 0).Return([]model.Voucher{*activeVoucher("A")}, nil)

	vouchers, err := service.List(ctx, admin, 500, -3)

	require.NoError(t, err)
	assert.Len(t, vouchers, 1)

	_, err = service.List(ctx, customer, 10, 0)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestVoucherService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	v := activeVoucher("GET")
	repo.On("GetByID", ctx, v.ID).Return(v, nil)
	repo.On("GetByID", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

	got, err := service.Get(ctx, admin, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = service.Get(ctx, admin, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestVoucherService_Validate(t *testing.T) {
	ctx := context.Background()

	expired := activeVoucher("OLD")
	expired.EndDate = fixedNow.Add(-time.Minute)

	minimum := activeVoucher("BIG")
	minimum.MinOrderAmount = decimal.NewFromInt(50)

	shipping := activeVoucher("SHIP")
	shipping.FreeShipping = true

	tests := []struct {
		name         string
		code         string
		subtotal     string
		voucher      *model.Voucher
		wantErr      error
		wantDiscount string
		wantShipping bool
	}{
		{name: "Valid percentage", code: " save ", subtotal: "80.00", voucher: activeVoucher("SAVE"), wantDiscount: "8.00"},
		{name: "Free shipping flag", code: "SHIP", subtotal: "20.00", voucher: shipping, wantDiscount: "2.00", wantShipping: true},
		{name: "Unknown code", code: "NOPE", subtotal: "10.00", wantErr: model.ErrVoucherNotFound},
		{name: "Expired", code: "OLD", subtotal: "10.00", voucher: expired, wantErr: model.ErrVoucherExpired},
		{name: "Below minimum", code: "BIG", subtotal: "49.99", voucher: minimum, wantErr: model.ErrVoucherBelowMinimumOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockVoucherRepository)
			service := NewVoucherService(repo, fixedClock, zerolog.Nop())

			repo.On("GetByCode", ctx, model.NormalizeCode(tt.code)).Return(tt.voucher, nil)

			result, err := service.Validate(ctx, &model.ValidateVoucherRequest{
				Code:     tt.code,
				Subtotal: decimal.RequireFromString(tt.subtotal),
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assertMoney(t, tt.wantDiscount, result.Discount)
			assert.Equal(t, tt.wantShipping, result.FreeShipping)
			repo.AssertExpectations(t)
		})
	}
}

func TestVoucherService_Validate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVoucherRepository)
	service := NewVoucherService(repo, fixedClock, zerolog.Nop())

	_, err := service.Validate(ctx, &model.ValidateVoucherRequest{Code: "", Subtotal: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, model.InvalidInput(""))

	_, err = service.Validate(ctx, &model.ValidateVoucherRequest{Code: "X", Subtotal: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, model.InvalidInput(""))

	repo.AssertNotCalled(t, "GetByCode", mock.Anything, mock.Anything)
}
