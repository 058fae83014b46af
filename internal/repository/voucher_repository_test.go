package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoucherRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	ctx := context.Background()

	maxDiscount := dec("25.00")
	v := newTestVoucher("SAVE10", intPtr(3))
	v.MaxDiscount = &maxDiscount
	v.FreeShipping = true
	require.NoError(t, repo.Create(ctx, v))

	t.Run("by ID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, v.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "SAVE10", got.Code)
		assert.Equal(t, model.DiscountPercentage, got.DiscountType)
		assert.True(t, dec("10").Equal(got.DiscountValue))
		require.NotNil(t, got.MaxDiscount)
		assert.True(t, maxDiscount.Equal(*got.MaxDiscount))
		require.NotNil(t, got.UsageLimit)
		assert.Equal(t, 3, *got.UsageLimit)
		assert.True(t, got.FreeShipping)
		assert.True(t, got.StartDate.Equal(v.StartDate))
	})

	t.Run("by code", func(t *testing.T) {
		got, err := repo.GetByCode(ctx, "SAVE10")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, v.ID, got.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetByCode(ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate code", func(t *testing.T) {
		err := repo.Create(ctx, newTestVoucher("SAVE10", nil))
		require.ErrorIs(t, err, model.ErrVoucherCodeExists)
	})

	t.Run("nullable columns", func(t *testing.T) {
		unlimited := newTestVoucher("UNLIMITED", nil)
		require.NoError(t, repo.Create(ctx, unlimited))

		got, err := repo.GetByID(ctx, unlimited.ID)
		require.NoError(t, err)
		assert.Nil(t, got.UsageLimit)
		assert.Nil(t, got.MaxDiscount)
	})
}

func TestVoucherRepository_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	ctx := context.Background()

	v := newTestVoucher("SPRING", intPtr(10))
	require.NoError(t, repo.Create(ctx, v))
	require.NoError(t, repo.Create(ctx, newTestVoucher("TAKEN", nil)))

	_, err := pool.Exec(ctx, `UPDATE vouchers SET used_count = 4 WHERE id = $1`, v.ID)
	require.NoError(t, err)

	t.Run("editable fields change, used count survives", func(t *testing.T) {
		v.Name = "Spring sale"
		v.DiscountType = model.DiscountFixed
		v.DiscountValue = dec("7.50")
		v.UsedCount = 0
		v.UpdatedAt = time.Now()

		require.NoError(t, repo.Update(ctx, v))
		assert.Equal(t, 4, v.UsedCount)

		got, err := repo.GetByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring sale", got.Name)
		assert.Equal(t, model.DiscountFixed, got.DiscountType)
		assert.True(t, dec("7.50").Equal(got.DiscountValue))
		assert.Equal(t, 4, got.UsedCount)
	})

	t.Run("code collision", func(t *testing.T) {
		clash := *v
		clash.Code = "TAKEN"
		require.ErrorIs(t, repo.Update(ctx, &clash), model.ErrVoucherCodeExists)
	})

	t.Run("missing voucher", func(t *testing.T) {
		ghost := newTestVoucher("GHOST", nil)
		require.ErrorIs(t, repo.Update(ctx, ghost), model.ErrVoucherNotFound)
	})
}

func TestVoucherRepository_ReserveAndRelease(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	orders := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	v := newTestVoucher("TWICE", intPtr(2))
	require.NoError(t, repo.Create(ctx, v))

	reserve := func() bool {
		tx, err := orders.BeginTx(ctx)
		require.NoError(t, err)
		ok, err := repo.Reserve(ctx, tx, v.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		return ok
	}
	release := func() {
		tx, err := orders.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Release(ctx, tx, v.ID))
		require.NoError(t, tx.Commit(ctx))
	}
	usedCount := func() int {
		got, err := repo.GetByID(ctx, v.ID)
		require.NoError(t, err)
		return got.UsedCount
	}

	assert.True(t, reserve())
	assert.True(t, reserve())
	assert.False(t, reserve(), "third use exceeds the limit")
	assert.Equal(t, 2, usedCount())

	release()
	assert.Equal(t, 1, usedCount())
	assert.True(t, reserve())

	release()
	release()
	release()
	assert.Equal(t, 0, usedCount(), "release never goes below zero")
}

func TestVoucherRepository_ConcurrentReserveNeverExceedsLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	orders := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	const limit = 3
	const workers = 12

	v := newTestVoucher("RUSH", intPtr(limit))
	require.NoError(t, repo.Create(ctx, v))

	var (
		wg       sync.WaitGroup
		reserved atomic.Int32
		errs     = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx, err := orders.BeginTx(ctx)
			if err != nil {
				errs <- err
				return
			}
			defer func() { _ = tx.Rollback(ctx) }()

			locked, err := repo.GetByCodeForUpdate(ctx, tx, "RUSH")
			if err != nil {
				errs <- err
				return
			}
			if locked.LimitReached() {
				return
			}
			ok, err := repo.Reserve(ctx, tx, locked.ID)
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				return
			}
			if err := tx.Commit(ctx); err != nil {
				errs <- err
				return
			}
			reserved.Add(1)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, limit, got.UsedCount)
	assert.EqualValues(t, limit, reserved.Load())
}

func TestVoucherRepository_DeactivateAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	ctx := context.Background()

	used := newTestVoucher("USED", nil)
	fresh := newTestVoucher("FRESH", nil)
	require.NoError(t, repo.Create(ctx, used))
	require.NoError(t, repo.Create(ctx, fresh))

	_, err := pool.Exec(ctx, `UPDATE vouchers SET used_count = 3 WHERE id = $1`, used.ID)
	require.NoError(t, err)

	t.Run("delete refuses a voucher with history", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, used.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		still, err := repo.GetByID(ctx, used.ID)
		require.NoError(t, err)
		require.NotNil(t, still)
	})

	t.Run("deactivate keeps used count", func(t *testing.T) {
		got, err := repo.Deactivate(ctx, used.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.IsActive)
		assert.Equal(t, 3, got.UsedCount)
	})

	t.Run("deactivate unknown", func(t *testing.T) {
		got, err := repo.Deactivate(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete unused voucher", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, fresh.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		gone, err := repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestVoucherRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewVoucherRepository(pool, zerolog.Nop())
	ctx := context.Background()

	for _, code := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, repo.Create(ctx, newTestVoucher(code, nil)))
	}

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
