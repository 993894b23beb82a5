package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bezero/internal/models"
)

func newTestStay(userID, roomID int64, checkIn time.Time, nights int) *models.RoomStay {
	return &models.RoomStay{
		UserID:   userID,
		RoomID:   roomID,
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, nights),
	}
}

func checkInStay(t *testing.T, db *DB, stay *models.RoomStay) {
	t.Helper()
	require.NoError(t, db.UpdateStayStatusWithVersion(context.Background(),
		stay.ID, stay.Version, models.StayReserved, models.StayCheckedIn))
	stay.Version++
	stay.Status = models.StayCheckedIn
}

func TestCreateStayWithLockCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	checkIn := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)

	// Комната 2 вмещает одного
	first := createTestUser(t, db, "s1@example.com", "sveta")
	stay := newTestStay(first.ID, 2, checkIn, 7)
	require.NoError(t, db.CreateStayWithLock(ctx, stay))
	assert.Equal(t, models.StayReserved, stay.Status)
	assert.Equal(t, int64(2), stay.GuestHouseID)

	// Пересекающийся период не проходит
	second := createTestUser(t, db, "s2@example.com", "sergei")
	overlap := newTestStay(second.ID, 2, checkIn.AddDate(0, 0, 3), 7)
	assert.ErrorIs(t, db.CreateStayWithLock(ctx, overlap), ErrNotAvailable)

	// Стык check_out == check_in — свободно
	adjacent := newTestStay(second.ID, 2, checkIn.AddDate(0, 0, 7), 3)
	assert.NoError(t, db.CreateStayWithLock(ctx, adjacent))
}

func TestCancelledStayFreesBed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	checkIn := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)

	user := createTestUser(t, db, "s3@example.com", "sonya")
	stay := newTestStay(user.ID, 2, checkIn, 5)
	require.NoError(t, db.CreateStayWithLock(ctx, stay))

	require.NoError(t, db.UpdateStayStatusWithVersion(ctx,
		stay.ID, stay.Version, models.StayReserved, models.StayCancelled))

	other := createTestUser(t, db, "s4@example.com", "sasha")
	again := newTestStay(other.ID, 2, checkIn, 5)
	assert.NoError(t, db.CreateStayWithLock(ctx, again))
}

func TestUpdateStayStatusConflictVsTransition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "s5@example.com", "stas")
	stay := newTestStay(user.ID, 1, time.Now().AddDate(0, 0, 1), 3)
	require.NoError(t, db.CreateStayWithLock(ctx, stay))

	// Правильный статус, чужая версия
	err := db.UpdateStayStatusWithVersion(ctx, stay.ID, stay.Version+7,
		models.StayReserved, models.StayCheckedIn)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Неверный исходный статус
	err = db.UpdateStayStatusWithVersion(ctx, stay.ID, stay.Version,
		models.StayCheckedIn, models.StayCheckedOut)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = db.UpdateStayStatusWithVersion(ctx, 404, 1, models.StayReserved, models.StayCheckedIn)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoommatesAndCoLocation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	checkIn := time.Now().AddDate(0, 0, -1)

	anna := createTestUser(t, db, "r1@example.com", "anna")
	boris := createTestUser(t, db, "r2@example.com", "boris")
	clara := createTestUser(t, db, "r3@example.com", "clara")

	for _, u := range []*models.User{anna, boris} {
		stay := newTestStay(u.ID, 1, checkIn, 7)
		require.NoError(t, db.CreateStayWithLock(ctx, stay))
		checkInStay(t, db, stay)
	}
	// Клара только забронировала и ещё не заехала
	reserved := newTestStay(clara.ID, 2, checkIn, 7)
	require.NoError(t, db.CreateStayWithLock(ctx, reserved))

	mates, err := db.GetRoommates(ctx, 1, anna.ID)
	require.NoError(t, err)
	require.Len(t, mates, 1)
	assert.Equal(t, "boris", mates[0].Nickname)

	ok, houseID, err := db.AreCoLocated(ctx, anna.ID, boris.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), houseID)

	ok, _, err = db.AreCoLocated(ctx, anna.ID, clara.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCheckedInStay(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "r4@example.com", "rita")

	_, err := db.GetCheckedInStay(ctx, user.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	stay := newTestStay(user.ID, 1, time.Now().AddDate(0, 0, -1), 7)
	require.NoError(t, db.CreateStayWithLock(ctx, stay))
	checkInStay(t, db, stay)

	got, err := db.GetCheckedInStay(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, stay.ID, got.ID)
}

func TestGetRoomAvailability(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	start := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)

	user := createTestUser(t, db, "r5@example.com", "roma")
	stay := newTestStay(user.ID, 1, start, 2)
	require.NoError(t, db.CreateStayWithLock(ctx, stay))

	availability, err := db.GetRoomAvailability(ctx, 1, start, 3)
	require.NoError(t, err)
	require.Len(t, availability, 3)

	assert.Equal(t, int64(1), availability[0].Booked)
	assert.Equal(t, int64(1), availability[0].Available)
	assert.Equal(t, int64(1), availability[1].Booked)
	assert.Equal(t, int64(0), availability[2].Booked)
	assert.Equal(t, int64(2), availability[2].Available)
}

func TestGetExpiredStays(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "r6@example.com", "rada")
	expired := newTestStay(user.ID, 1, time.Now().AddDate(0, 0, -10), 3)
	require.NoError(t, db.CreateStayWithLock(ctx, expired))
	checkInStay(t, db, expired)

	current := newTestStay(user.ID, 2, time.Now().AddDate(0, 0, -1), 7)
	require.NoError(t, db.CreateStayWithLock(ctx, current))
	checkInStay(t, db, current)

	stays, err := db.GetExpiredStays(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, stays, 1)
	assert.Equal(t, expired.ID, stays[0].ID)
}

func TestGetStaysByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().Truncate(24 * time.Hour)

	for i := 0; i < 3; i++ {
		user := createTestUser(t, db, fmt.Sprintf("range%d@example.com", i), "guest")
		stay := newTestStay(user.ID, 1, base.AddDate(0, 0, i*30), 2)
		require.NoError(t, db.CreateStayWithLock(ctx, stay))
	}

	stays, err := db.GetStaysByDateRange(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 40))
	require.NoError(t, err)
	assert.Len(t, stays, 2)
}
