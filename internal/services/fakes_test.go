package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"
)

// countingStore wraps a real store, counts writes and can fail or stall them.
type countingStore struct {
	repos.DocStore
	puts    atomic.Int32
	failPut error
	getWait time.Duration
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	s, err := repos.OpenSQLStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &countingStore{DocStore: s}
}

func (s *countingStore) Put(ctx context.Context, collection, key string, v any) error {
	s.puts.Add(1)
	if s.failPut != nil {
		return s.failPut
	}
	return s.DocStore.Put(ctx, collection, key, v)
}

func (s *countingStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if s.getWait > 0 {
		select {
		case <-time.After(s.getWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.DocStore.Get(ctx, collection, key)
}

var errOffline = errors.New("store offline")

type recordingPublisher struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, o domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Order(nil), p.orders...)
}
