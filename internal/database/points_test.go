package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bezero/internal/models"
)

func TestLedgerBalanceMath(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "a@example.com", "anna")

	earn, err := db.Earn(ctx, user.ID, 500, models.RefSignupBonus, "1", "signup")
	require.NoError(t, err)
	assert.Equal(t, int64(0), earn.BalanceBefore)
	assert.Equal(t, int64(500), earn.BalanceAfter)

	spend, err := db.Spend(ctx, user.ID, 120, models.RefTicket, "1", "ticket")
	require.NoError(t, err)
	assert.Equal(t, int64(500), spend.BalanceBefore)
	assert.Equal(t, int64(380), spend.BalanceAfter)

	balance, err := db.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(380), balance)
}

func TestLedgerInsufficientPoints(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "b@example.com", "boris")

	_, err := db.Earn(ctx, user.ID, 100, "", "", "seed")
	require.NoError(t, err)

	_, err = db.Spend(ctx, user.ID, 101, "", "", "too much")
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	// Баланс не изменился
	balance, err := db.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestLedgerDuplicateReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "c@example.com", "clara")

	_, err := db.Earn(ctx, user.ID, 50, models.RefDiaryEntry, "11", "diary reward")
	require.NoError(t, err)

	// Повтор той же пары reference не проходит
	_, err = db.Earn(ctx, user.ID, 50, models.RefDiaryEntry, "11", "diary reward replay")
	assert.ErrorIs(t, err, ErrDuplicateReference)

	balance, err := db.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	// Пустой reference не участвует в уникальности
	_, err = db.Earn(ctx, user.ID, 10, "", "", "manual")
	require.NoError(t, err)
	_, err = db.Earn(ctx, user.ID, 10, "", "", "manual again")
	require.NoError(t, err)
}

func TestLedgerRejectsInvalidAmount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "d@example.com", "dima")

	_, err := db.Earn(ctx, user.ID, 0, "", "", "zero")
	assert.Error(t, err)
	_, err = db.Earn(ctx, user.ID, -5, "", "", "negative")
	assert.Error(t, err)
}

func TestGetPointTransactionsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "e@example.com", "elena")

	for i := 0; i < 3; i++ {
		_, err := db.Earn(ctx, user.ID, 10, "", "", "seed")
		require.NoError(t, err)
	}

	page, err := db.GetPointTransactions(ctx, user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)

	rest, err := db.GetPointTransactions(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	all, err := db.GetAllPointTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[2].ID)
}
