package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
)

func TestRedisCache_SetGet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisCache(mr.Addr(), "storefront")
	ctx := context.Background()

	key := c.GenerateKey("webhook", "evt_1")
	assert.Equal(t, "storefront:webhook:evt_1", key)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "missing key reads as empty")

	require.NoError(t, c.Set(ctx, key, "processed", time.Minute))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "processed", got)

	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "marker expires with its ttl")
}

func TestRedisCache_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisCache(mr.Addr(), "storefront")
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
