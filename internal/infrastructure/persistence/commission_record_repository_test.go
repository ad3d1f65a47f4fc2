package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/commission"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, beneficiaryID, orderID uuid.UUID, level int, unit string, qty int) *commission.Record {
	t.Helper()
	r, err := commission.NewRecord(beneficiaryID, uuid.New(), orderID, uuid.New(), level, dec(unit), qty)
	require.NoError(t, err)
	return r
}

func TestCommissionRecordRepository_SaveBatchAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCommissionRecordRepository(db)
	ctx := context.Background()

	beneficiary := uuid.New()
	orderID := uuid.New()
	l1 := newTestRecord(t, beneficiary, orderID, 1, "25", 2)
	l2 := newTestRecord(t, uuid.New(), orderID, 2, "20", 2)

	require.NoError(t, repo.SaveBatch(ctx, []*commission.Record{l2, l1}))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, l1.ID)
		require.NoError(t, err)
		assert.Equal(t, commission.StatusPending, found.Status)
		assert.True(t, found.Amount.Equal(dec("50")))
		assert.True(t, found.UnitAmount.Equal(dec("25")))
		assert.Equal(t, 2, found.Quantity)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by order lowest level first", func(t *testing.T) {
		records, err := repo.FindByOrder(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 1, records[0].Level)
		assert.Equal(t, 2, records[1].Level)
	})

	t.Run("an order pays each level once", func(t *testing.T) {
		again := newTestRecord(t, beneficiary, orderID, 1, "25", 2)
		assert.Error(t, repo.SaveBatch(ctx, []*commission.Record{again}))
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.SaveBatch(ctx, nil))
	})
}

func TestCommissionRecordRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCommissionRecordRepository(db)
	ctx := context.Background()

	rec := newTestRecord(t, uuid.New(), uuid.New(), 1, "10", 1)
	require.NoError(t, repo.SaveBatch(ctx, []*commission.Record{rec}))

	t.Run("moves a pending record", func(t *testing.T) {
		require.NoError(t, rec.Cancel("refund"))
		ok, err := repo.UpdateStatus(ctx, rec, commission.StatusPending)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, commission.StatusCancelled, found.Status)
		assert.Equal(t, "refund", found.CancelReason)
		assert.NotNil(t, found.CancelledAt)
	})

	t.Run("a second transition from pending loses", func(t *testing.T) {
		stale := *rec
		stale.Status = commission.StatusPaid
		ok, err := repo.UpdateStatus(ctx, &stale, commission.StatusPending)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, commission.StatusCancelled, found.Status)
	})
}

func TestCommissionRecordRepository_Beneficiary(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCommissionRecordRepository(db)
	ctx := context.Background()

	beneficiary := uuid.New()
	pending1 := newTestRecord(t, beneficiary, uuid.New(), 1, "25", 2)
	pending2 := newTestRecord(t, beneficiary, uuid.New(), 1, "5", 1)
	paid := newTestRecord(t, beneficiary, uuid.New(), 2, "20", 1)
	other := newTestRecord(t, uuid.New(), uuid.New(), 1, "99", 1)
	require.NoError(t, repo.SaveBatch(ctx, []*commission.Record{pending1, pending2, paid, other}))

	require.NoError(t, paid.MarkPaid())
	ok, err := repo.UpdateStatus(ctx, paid, commission.StatusPending)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("sums per status", func(t *testing.T) {
		sums, err := repo.SumByBeneficiary(ctx, beneficiary)
		require.NoError(t, err)
		assert.True(t, sums[commission.StatusPending].Equal(dec("55")))
		assert.True(t, sums[commission.StatusPaid].Equal(dec("20")))
		assert.True(t, sums[commission.StatusCancelled].IsZero())
	})

	t.Run("lists with a status filter", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.Filters["status"] = commission.StatusPending
		records, total, err := repo.FindByBeneficiary(ctx, beneficiary, f)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, records, 2)
	})

	t.Run("lists all records of the member", func(t *testing.T) {
		records, total, err := repo.FindByBeneficiary(ctx, beneficiary, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, records, 3)
	})
}

func TestDistributionRepository_Insert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDistributionRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	d := commission.NewDistribution(orderID, uuid.New(), uuid.New(), 2)
	d.RecordCount = 2
	d.TotalAmount = dec("90")

	ok, err := repo.Insert(ctx, d)
	require.NoError(t, err)
	assert.True(t, ok)

	again := commission.NewDistribution(orderID, uuid.New(), uuid.New(), 1)
	ok, err = repo.Insert(ctx, again)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity)
	assert.Equal(t, 2, found.RecordCount)
	assert.True(t, found.TotalAmount.Equal(dec("90")))

	_, err = repo.FindByOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWithdrawalRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormWithdrawalRepository(db)
	ctx := context.Background()

	memberID := uuid.New()

	total, err := repo.SumByMember(ctx, memberID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for _, amount := range []string{"10", "15", "5"} {
		w, err := commission.NewWithdrawal(memberID, dec(amount), "bank")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, w))
	}
	other, err := commission.NewWithdrawal(uuid.New(), dec("100"), "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	total, err = repo.SumByMember(ctx, memberID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("30")))

	f := shared.DefaultFilter()
	f.PageSize = 2
	withdrawals, count, err := repo.FindByMember(ctx, memberID, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, withdrawals, 2)
}
