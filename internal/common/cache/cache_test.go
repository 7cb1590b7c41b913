package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Value string `json:"value"`
}

func newCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client), mr
}

func TestSet_StoresJSON(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Value: "v"}, time.Minute))

	raw, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"v"}`, raw)
	assert.True(t, mr.Exists("k"))
}

func TestTake_Miss(t *testing.T) {
	c, _ := newCache(t)

	var got entry
	assert.ErrorIs(t, c.Take(context.Background(), "absent", &got), ErrMiss)
}

func TestTake_OnlyOnce(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "nonce", entry{Value: "n1"}, time.Minute))

	var got entry
	require.NoError(t, c.Take(ctx, "nonce", &got))
	assert.Equal(t, "n1", got.Value)
	assert.ErrorIs(t, c.Take(ctx, "nonce", &got), ErrMiss)
}

func TestSet_Expires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Value: "v"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got entry
	assert.ErrorIs(t, c.Take(ctx, "k", &got), ErrMiss)
}
