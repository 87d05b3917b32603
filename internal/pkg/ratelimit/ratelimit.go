package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the pluggable window counter behind the rate limiter: an atomic
// increment-and-expire keyed by (actor, route, window). The in-memory
// implementation serves single-process deployments; the Redis one is shared
// across processes.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is a fixed-window counter over a mutex-guarded map. Windows
// reset lazily on the first increment after expiry.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]*memoryEntry)}
}

func (m *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &memoryEntry{resetAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.resetAt.Sub(now), nil
}

// RedisCounter is a fixed-window counter on INCR + EXPIRE, suitable when more
// than one process serves the webhook route.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// ttl < 0 means the key has no expiry: the first hit of a window, or a
	// window whose EXPIRE was lost earlier. Either way the key must not be
	// allowed to count forever.
	if ttl < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}
