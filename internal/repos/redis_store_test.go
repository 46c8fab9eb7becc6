package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeorders/internal/repos"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore(t *testing.T) {
	storeContract(t, func(t *testing.T) repos.DocStore {
		_, rdb := newRedis(t)
		return repos.NewRedisStore(rdb)
	})
}

func TestRedisStoreSharesChangesAcrossClients(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	reader := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	writer := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = reader.Close(); _ = writer.Close() })

	rec := newRecorder()
	sub, err := repos.NewRedisStore(reader).Subscribe(ctx, repos.Query{Collection: "orders"}, rec.fn)
	require.NoError(t, err)
	defer sub.Cancel()
	rec.waitFor(t, func(s repos.Snapshot) bool { return s.Empty() })

	require.NoError(t, repos.NewRedisStore(writer).Put(ctx, "orders", "o-1", doc{Name: "latte"}))
	got := rec.waitFor(t, func(s repos.Snapshot) bool { return len(s.Docs) == 1 })
	assert.Equal(t, "o-1", got.Docs[0].Key)
}

func TestRedisCarts(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	carts := repos.NewRedisCarts(rdb, time.Hour)

	_, ok, err := carts.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, carts.Save(ctx, "sid-1", `[{"quantity":1}]`))
	got, ok, err := carts.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"quantity":1}]`, got)
	assert.Equal(t, time.Hour, mr.TTL("cafe:cart:sid-1"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = carts.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok, "cart should expire")

	require.NoError(t, carts.Save(ctx, "sid-2", "[]"))
	require.NoError(t, carts.Delete(ctx, "sid-2"))
	_, ok, _ = carts.Load(ctx, "sid-2")
	assert.False(t, ok)
}

func TestMemoryCarts(t *testing.T) {
	ctx := context.Background()
	carts := repos.NewMemoryCarts()

	_, ok, err := carts.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, carts.Save(ctx, "a", "[]"))
	got, ok, _ := carts.Load(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "[]", got)

	require.NoError(t, carts.Delete(ctx, "a"))
	_, ok, _ = carts.Load(ctx, "a")
	assert.False(t, ok)
}
