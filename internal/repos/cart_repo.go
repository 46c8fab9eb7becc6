package repos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore holds the serialized cart of each browsing session.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (payload string, ok bool, err error)
	Save(ctx context.Context, sessionID, payload string) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryCarts keeps carts in process memory; they vanish on restart.
type MemoryCarts struct {
	mu    sync.RWMutex
	carts map[string]string
}

func NewMemoryCarts() *MemoryCarts { return &MemoryCarts{carts: map[string]string{}} }

func (m *MemoryCarts) Load(_ context.Context, sessionID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.carts[sessionID]
	return p, ok, nil
}

func (m *MemoryCarts) Save(_ context.Context, sessionID, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = payload
	return nil
}

func (m *MemoryCarts) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// RedisCarts keeps carts in Redis with a sliding TTL refreshed on every save.
type RedisCarts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCarts(client *redis.Client, ttl time.Duration) *RedisCarts {
	return &RedisCarts{client: client, ttl: ttl}
}

func cartKey(sessionID string) string { return "cafe:cart:" + sessionID }

func (r *RedisCarts) Load(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := r.client.Get(ctx, cartKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCarts) Save(ctx context.Context, sessionID, payload string) error {
	return r.client.Set(ctx, cartKey(sessionID), payload, r.ttl).Err()
}

func (r *RedisCarts) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKey(sessionID)).Err()
}
