package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bezero/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisStateRepository держит волатильное состояние: присутствие в гостевом
// доме, окна рейт-лимита чата и счётчики непрочитанных DM.
type RedisStateRepository struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStateRepository(client *redis.Client) *RedisStateRepository {
	return &RedisStateRepository{client: client}
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("bezero:presence:%d", userID)
}

func rateKey(userID int64) string {
	return fmt.Sprintf("bezero:chat:rate:%d", userID)
}

func unreadKey(roomID string, userID int64) string {
	return fmt.Sprintf("bezero:dm:unread:%s:%d", roomID, userID)
}

// SetPresence marks the user as currently checked in at a guest house. The
// TTL keeps presence from going stale if the checkout sweep misses it.
func (r *RedisStateRepository) SetPresence(ctx context.Context, userID, guestHouseID int64, ttl time.Duration) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if err := r.client.Set(ctx, presenceKey(userID), guestHouseID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) ClearPresence(ctx context.Context, userID int64) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if err := r.client.Del(ctx, presenceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear presence: %w", err)
	}
	return nil
}

// GetPresence returns the guest house the user is checked in at, or 0.
func (r *RedisStateRepository) GetPresence(ctx context.Context, userID int64) (int64, error) {
	if r.client == nil {
		return 0, errors.New("redis client is nil")
	}
	val, err := r.client.Get(ctx, presenceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get presence: %w", err)
	}
	houseID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse presence value: %w", err)
	}
	return houseID, nil
}

// CheckRateLimit counts messages in a fixed window: INCR then EXPIRE on the
// first hit. Returns false once the count passes the limit.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errors.New("redis client is nil")
	}
	count, err := r.client.Incr(ctx, rateKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, rateKey(userID), window)
	}

	return count <= int64(limit), nil
}

func (r *RedisStateRepository) IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	if r.client == nil {
		return 0, errors.New("redis client is nil")
	}
	count, err := r.client.Incr(ctx, unreadKey(roomID, userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment unread counter: %w", err)
	}
	return count, nil
}

func (r *RedisStateRepository) GetUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	if r.client == nil {
		return 0, errors.New("redis client is nil")
	}
	val, err := r.client.Get(ctx, unreadKey(roomID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get unread counter: %w", err)
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse unread counter: %w", err)
	}
	return count, nil
}

func (r *RedisStateRepository) ResetUnread(ctx context.Context, roomID string, userID int64) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	if err := r.client.Del(ctx, unreadKey(roomID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
