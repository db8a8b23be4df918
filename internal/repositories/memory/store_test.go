package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paytrack/internal/models"
	"paytrack/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, s *Store, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		u := models.PlaceholderUser(id)
		_, err := s.EnsureUser(context.Background(), &u)
		require.NoError(t, err)
	}
}

func TestStore_EnsureUserKeepsExistingProfile(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	_, err := s.EnsureUser(ctx, &first)
	require.NoError(t, err)

	placeholder := models.PlaceholderUser(1)
	got, err := s.EnsureUser(ctx, &placeholder)
	require.NoError(t, err)

	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_RollbackDiscardsStagedWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, 1, 2)

	boom := errors.New("boom")
	err := s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		p := &models.Payment{PayerID: 1, RecipientID: 2, Amount: decimal.NewFromInt(5)}
		require.NoError(t, tx.CreatePayment(ctx, p))
		require.NoError(t, tx.AdjustBalance(ctx, 1, 2, decimal.NewFromInt(-5)))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Len())
	_, err = s.GetBalance(ctx, 1, 2)
	assert.ErrorIs(t, err, repositories.ErrBalanceNotFound)
}

func TestStore_ReadsInsideUnitSeeStagedWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, 1, 2)
	require.NoError(t, s.AdjustBalance(ctx, 1, 2, decimal.NewFromInt(10)))

	err := s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		require.NoError(t, tx.AdjustBalance(ctx, 1, 2, decimal.NewFromInt(-3)))
		b, err := tx.GetBalance(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, b.Amount.Equal(decimal.NewFromInt(7)))
		return nil
	})
	require.NoError(t, err)

	b, err := s.GetBalance(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(7)))
}

func TestStore_ReferentialIntegrity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, 1)

	err := s.CreatePayment(ctx, &models.Payment{PayerID: 1, RecipientID: 99, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	err = s.AdjustBalance(ctx, 99, 1, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestStore_PaymentsNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, 1, 2, 3)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []models.Payment{
		{PayerID: 1, RecipientID: 2, Description: "old", Timestamp: base},
		{PayerID: 2, RecipientID: 1, Description: "tie-a", Timestamp: base.Add(time.Hour)},
		{PayerID: 1, RecipientID: 3, Description: "other pair", Timestamp: base.Add(2 * time.Hour)},
		{PayerID: 1, RecipientID: 2, Description: "tie-b", Timestamp: base.Add(time.Hour)},
	} {
		p.Amount = decimal.NewFromInt(int64(i + 1))
		require.NoError(t, s.CreatePayment(ctx, &p))
	}

	got, err := s.GetPaymentsBetween(ctx, 2, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "tie-b", got[0].Description)
	assert.Equal(t, "tie-a", got[1].Description)
	assert.Equal(t, "old", got[2].Description)

	limited, err := s.GetPaymentsBetween(ctx, 1, 2, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.GetPaymentsBetween(ctx, 2, 3, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_PairLockSerializesUnits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, 1, 2)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
				if err := tx.LockPair(ctx, 2, 1); err != nil {
					return err
				}
				return tx.AdjustBalance(ctx, 1, 2, decimal.NewFromInt(1))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := s.GetBalance(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(workers)), "got %s", b.Amount)
}

func TestStore_LockPairHonoursContext(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, 1, 2)

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.ExecuteInTransaction(context.Background(), func(tx repositories.LedgerRepository) error {
			require.NoError(t, tx.LockPair(context.Background(), 1, 2))
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		return tx.LockPair(ctx, 2, 1)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
