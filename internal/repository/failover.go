package repository

import (
	"context"
	"sync/atomic"
	"time"

	"bezero/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverStateRepository routes to the primary (Redis) while it is healthy
// and falls back to the in-memory repository when it errors. It retries the
// primary after a cooldown.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryInterval = time.Minute

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

// usePrimary reports whether the call should go to the primary first.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverStateRepository) SetPresence(ctx context.Context, userID, guestHouseID int64, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.SetPresence(ctx, userID, guestHouseID, ttl)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetPresence(ctx, userID, guestHouseID, ttl)
}

func (r *FailoverStateRepository) ClearPresence(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearPresence(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearPresence(ctx, userID)
}

func (r *FailoverStateRepository) GetPresence(ctx context.Context, userID int64) (int64, error) {
	if r.usePrimary() {
		houseID, err := r.primary.GetPresence(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return houseID, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetPresence(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

func (r *FailoverStateRepository) IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	if r.usePrimary() {
		count, err := r.primary.IncrUnread(ctx, roomID, userID)
		if err == nil {
			r.isDown.Store(false)
			return count, nil
		}
		r.markDown(err)
	}
	return r.fallback.IncrUnread(ctx, roomID, userID)
}

func (r *FailoverStateRepository) GetUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	if r.usePrimary() {
		count, err := r.primary.GetUnread(ctx, roomID, userID)
		if err == nil {
			r.isDown.Store(false)
			return count, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetUnread(ctx, roomID, userID)
}

func (r *FailoverStateRepository) ResetUnread(ctx context.Context, roomID string, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ResetUnread(ctx, roomID, userID)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ResetUnread(ctx, roomID, userID)
}
