package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bezero/internal/models"
)

func TestCreateUserAndLookup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Email:        "anna@example.com",
		PasswordHash: "hash",
		Nickname:     "anna",
		HomeCity:     "Киев",
	}
	require.NoError(t, db.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	byEmail, err := db.GetUserByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", byID.Nickname)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserEmailTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "dup@example.com", "first")

	dup := &models.User{Email: "dup@example.com", PasswordHash: "hash", Nickname: "second"}
	assert.ErrorIs(t, db.CreateUser(ctx, dup), ErrEmailTaken)
}

func TestUpdateUserProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "u1@example.com", "old")

	require.NoError(t, db.UpdateUserProfile(ctx, user.ID, "new", "люблю дирижабли", "Вена"))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Nickname)
	assert.Equal(t, "люблю дирижабли", got.Bio)
	assert.Equal(t, "Вена", got.HomeCity)

	assert.ErrorIs(t, db.UpdateUserProfile(ctx, 404, "x", "", ""), ErrNotFound)
}

func TestSetUserBlacklisted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "u2@example.com", "misha")

	require.NoError(t, db.SetUserBlacklisted(ctx, user.ID, true))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBlacklisted)

	assert.ErrorIs(t, db.SetUserBlacklisted(ctx, 404, true), ErrNotFound)
}
