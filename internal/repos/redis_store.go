package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	applog "cafeorders/internal/log"
)

// RedisStore keeps each collection in a hash and announces changes on a pub/sub
// channel, so subscribers in every process sharing the Redis server see them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "cafe"}
}

func (s *RedisStore) hashKey(collection string) string {
	return s.prefix + ":doc:" + collection
}

func (s *RedisStore) channel(collection string) string {
	return s.prefix + ":changed:" + collection
}

func (s *RedisStore) Push(ctx context.Context, collection string, v any) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, collection, key, v); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RedisStore) Put(ctx context.Context, collection, key string, v any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	if err := s.client.HSet(ctx, s.hashKey(collection), key, body).Err(); err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	// the document is stored; a lost notification only delays live views
	if err := s.client.Publish(ctx, s.channel(collection), key).Err(); err != nil {
		applog.Error(nil, "store.notify.fail", err, map[string]any{"collection": collection, "key": key})
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if err := checkKey(collection, key); err != nil {
		return nil, err
	}
	body, err := s.client.HGet(ctx, s.hashKey(collection), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	return body, nil
}

func (s *RedisStore) List(ctx context.Context, q Query) (Snapshot, error) {
	if err := q.validate(); err != nil {
		return Snapshot{}, err
	}
	all, err := s.client.HGetAll(ctx, s.hashKey(q.Collection)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	snap := Snapshot{Docs: make([]Doc, 0, len(all))}
	for key, body := range all {
		if !q.matches([]byte(body)) {
			continue
		}
		snap.Docs = append(snap.Docs, Doc{Key: key, Body: json.RawMessage(body)})
	}
	sort.Slice(snap.Docs, func(i, j int) bool { return snap.Docs[i].Key < snap.Docs[j].Key })
	return snap, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	ps := s.client.Subscribe(ctx, s.channel(q.Collection))
	// wait for the server to confirm, otherwise early publishes are missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", q.Collection, err)
	}

	sub, subCtx := newSubscription(ctx, q)
	msgs := ps.Channel()
	go func() {
		for range msgs {
			sub.notify()
		}
	}()
	sub.start(subCtx, s.List, fn, func() { _ = ps.Close() })
	return sub, nil
}

func (s *RedisStore) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.client.HLen(ctx, s.hashKey(collection)).Result()
	return int(n), err
}

func (s *RedisStore) Close() error { return s.client.Close() }
