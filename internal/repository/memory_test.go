package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	t.Run("Presence", func(t *testing.T) {
		require.NoError(t, repo.SetPresence(ctx, 1, 42, time.Hour))

		houseID, err := repo.GetPresence(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(42), houseID)

		require.NoError(t, repo.ClearPresence(ctx, 1))

		houseID, err = repo.GetPresence(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), houseID)
	})

	t.Run("PresenceExpires", func(t *testing.T) {
		require.NoError(t, repo.SetPresence(ctx, 2, 7, -time.Second))

		houseID, err := repo.GetPresence(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(0), houseID)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			allowed, err := repo.CheckRateLimit(ctx, 3, 5, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, 3, 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("Unread", func(t *testing.T) {
		count, err := repo.IncrUnread(ctx, "r1", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = repo.GetUnread(ctx, "r1", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, repo.ResetUnread(ctx, "r1", 4))

		count, err = repo.GetUnread(ctx, "r1", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
