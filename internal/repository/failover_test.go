package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SetPresence(ctx context.Context, userID, guestHouseID int64, ttl time.Duration) error {
	args := m.Called(ctx, userID, guestHouseID, ttl)
	return args.Error(0)
}

func (m *mockRepo) ClearPresence(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) GetPresence(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) GetUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) ResetUnread(ctx context.Context, roomID string, userID int64) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("GetPresence", ctx, int64(1)).Return(int64(5), nil).Once()

		houseID, err := repo.GetPresence(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), houseID)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("GetPresence", ctx, int64(2)).Return(int64(0), errors.New("fail")).Once()
		fallback.On("GetPresence", ctx, int64(2)).Return(int64(9), nil).Once()

		houseID, err := repo.GetPresence(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(9), houseID)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("WhileDownUsesFallback", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().UnixNano())

		fallback.On("CheckRateLimit", ctx, int64(3), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 3, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())

		primary.On("GetPresence", ctx, int64(4)).Return(int64(11), nil).Once()

		houseID, err := repo.GetPresence(ctx, 4)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), houseID)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("SetPresenceFallsBack", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("SetPresence", ctx, int64(5), int64(1), time.Hour).Return(errors.New("down")).Once()
		fallback.On("SetPresence", ctx, int64(5), int64(1), time.Hour).Return(nil).Once()

		err := repo.SetPresence(ctx, 5, 1, time.Hour)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
