// internal/service/recurring_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"fintrack-ledger/internal/domain"
	"fintrack-ledger/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recurringFixture struct {
	*ledgerFixture
	recurring RecurringService
}

func newRecurringFixture() *recurringFixture {
	f := newLedgerFixture(MissingWalletSkip)
	svc := NewRecurringService(f.uow, memTx{}, memWalletRepo{s: f.store}, memRecurringRepo{s: f.store}, f.svc, discardLogger())
	return &recurringFixture{ledgerFixture: f, recurring: svc}
}

func dailyExpense(walletID int64, amount string, start time.Time) domain.RecurringInput {
	return domain.RecurringInput{
		TransactionInput: expense(walletID, amount),
		Frequency:        domain.FrequencyDaily,
		StartDate:        start,
	}
}

func TestRecurringService_CreateRecurring(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture()
	x := f.store.seedWallet(f.userID, decimal.Zero)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		rec, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(x, "10", start))
		require.NoError(t, err)
		assert.NotZero(t, rec.ID)
		assert.True(t, rec.Active)
		assert.Equal(t, start, rec.NextRunDate)
	})

	t.Run("UnknownFrequency", func(t *testing.T) {
		in := dailyExpense(x, "10", start)
		in.Frequency = "HOURLY"
		_, err := f.recurring.CreateRecurring(ctx, f.userID, in)
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("ForeignWallet", func(t *testing.T) {
		other := f.store.seedUser("mallory")
		_, err := f.recurring.CreateRecurring(ctx, other, dailyExpense(x, "10", start))
		assert.ErrorIs(t, err, util.ErrWalletNotFound)
	})

	t.Run("ForeignDestinationWallet", func(t *testing.T) {
		other := f.store.seedUser("mallory")
		own := f.store.seedWallet(other, dec("100"))
		before := len(f.store.recurring)

		in := dailyExpense(own, "10", start)
		in.TransactionInput = transfer(own, x, "10")
		_, err := f.recurring.CreateRecurring(ctx, other, in)

		assert.ErrorIs(t, err, util.ErrWalletNotFound)
		assert.Len(t, f.store.recurring, before)
	})

	t.Run("UnknownDestinationFollowsWalletPolicy", func(t *testing.T) {
		in := dailyExpense(x, "10", start)
		in.TransactionInput = transfer(x, 424242, "10")
		rec, err := f.recurring.CreateRecurring(ctx, f.userID, in)

		require.NoError(t, err)
		assert.Equal(t, int64(424242), *rec.ToWalletID)
	})
}

func TestRecurringService_ProcessDue(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	t.Run("CatchesUpMissedOccurrences", func(t *testing.T) {
		f := newRecurringFixture()
		x := f.store.seedWallet(f.userID, dec("100"))
		rec, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(x, "10", start))
		require.NoError(t, err)

		result, err := f.recurring.ProcessDue(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{Processed: 1, Posted: 3}, result)
		assertBalance(t, f.store, x, "70")
		stored := f.store.recurring[rec.ID]
		assert.Equal(t, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC), stored.NextRunDate)
		assert.True(t, stored.Active)
		for _, tx := range f.store.transactions {
			require.NotNil(t, tx.RecurringID)
			assert.Equal(t, rec.ID, *tx.RecurringID)
		}

		// A second run at the same instant has nothing left to post.
		result, err = f.recurring.ProcessDue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, ProcessResult{}, result)
		assertBalance(t, f.store, x, "70")
	})

	t.Run("EndDateDeactivates", func(t *testing.T) {
		f := newRecurringFixture()
		x := f.store.seedWallet(f.userID, decimal.Zero)
		in := dailyExpense(x, "5", start)
		in.EndDate = ptr(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC))
		rec, err := f.recurring.CreateRecurring(ctx, f.userID, in)
		require.NoError(t, err)

		result, err := f.recurring.ProcessDue(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Posted)
		assertBalance(t, f.store, x, "-10")
		assert.False(t, f.store.recurring[rec.ID].Active)
	})

	t.Run("FailingTemplateDoesNotBlockOthers", func(t *testing.T) {
		f := newRecurringFixture()
		gone := f.store.seedWallet(f.userID, decimal.Zero)
		kept := f.store.seedWallet(f.userID, decimal.Zero)
		broken, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(gone, "1", start))
		require.NoError(t, err)
		_, err = f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(kept, "2", start))
		require.NoError(t, err)
		delete(f.store.wallets, gone)

		result, err := f.recurring.ProcessDue(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{Processed: 1, Posted: 3, Failed: 1}, result)
		assertBalance(t, f.store, kept, "-6")
		assert.Equal(t, start, f.store.recurring[broken.ID].NextRunDate)
		assert.Len(t, f.store.transactions, 3)
	})

	t.Run("InactiveTemplatesAreSkipped", func(t *testing.T) {
		f := newRecurringFixture()
		x := f.store.seedWallet(f.userID, decimal.Zero)
		rec, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(x, "10", start))
		require.NoError(t, err)
		require.NoError(t, f.recurring.DeactivateRecurring(ctx, f.userID, rec.ID))

		result, err := f.recurring.ProcessDue(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, ProcessResult{}, result)
		assertBalance(t, f.store, x, "0")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		f := newRecurringFixture()
		x := f.store.seedWallet(f.userID, decimal.Zero)
		_, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(x, "10", start))
		require.NoError(t, err)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = f.recurring.ProcessDue(canceled, now)

		assert.ErrorIs(t, err, context.Canceled)
		assertBalance(t, f.store, x, "0")
	})
}

func TestRecurringService_DeactivateRecurring(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture()
	x := f.store.seedWallet(f.userID, decimal.Zero)
	rec, err := f.recurring.CreateRecurring(ctx, f.userID, dailyExpense(x, "10", time.Now().UTC()))
	require.NoError(t, err)

	t.Run("OtherUser", func(t *testing.T) {
		other := f.store.seedUser("eve")
		err := f.recurring.DeactivateRecurring(ctx, other, rec.ID)
		assert.ErrorIs(t, err, util.ErrRecurringNotFound)
		assert.True(t, f.store.recurring[rec.ID].Active)
	})

	t.Run("Missing", func(t *testing.T) {
		err := f.recurring.DeactivateRecurring(ctx, f.userID, 12345)
		assert.ErrorIs(t, err, util.ErrRecurringNotFound)
	})

	t.Run("Owner", func(t *testing.T) {
		require.NoError(t, f.recurring.DeactivateRecurring(ctx, f.userID, rec.ID))
		items, err := f.recurring.ListRecurring(ctx, f.userID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.False(t, items[0].Active)
	})
}
