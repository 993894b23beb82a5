package repository

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStateRepository is the in-process fallback when Redis is down.
// Presence TTLs and unread counters survive only as long as the process.
type MemoryStateRepository struct {
	mu         sync.Mutex
	presence   map[int64]presenceEntry
	rateLimits map[int64]*rateLimitEntry
	unread     map[string]int64
}

type presenceEntry struct {
	guestHouseID int64
	expiresAt    time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{
		presence:   make(map[int64]presenceEntry),
		rateLimits: make(map[int64]*rateLimitEntry),
		unread:     make(map[string]int64),
	}
}

func (r *MemoryStateRepository) SetPresence(ctx context.Context, userID, guestHouseID int64, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence[userID] = presenceEntry{guestHouseID: guestHouseID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *MemoryStateRepository) ClearPresence(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.presence, userID)
	return nil
}

func (r *MemoryStateRepository) GetPresence(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.presence[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(r.presence, userID)
		return 0, nil
	}
	return entry.guestHouseID, nil
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}

func memUnreadKey(roomID string, userID int64) string {
	return fmt.Sprintf("%s:%d", roomID, userID)
}

func (r *MemoryStateRepository) IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memUnreadKey(roomID, userID)
	r.unread[key]++
	return r.unread[key], nil
}

func (r *MemoryStateRepository) GetUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread[memUnreadKey(roomID, userID)], nil
}

func (r *MemoryStateRepository) ResetUnread(ctx context.Context, roomID string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unread, memUnreadKey(roomID, userID))
	return nil
}
