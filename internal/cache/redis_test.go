package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/storefront/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestGet_Success(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		ID:     "cart-1",
		UserID: 42,
		Status: domain.CartStatusOpen,
		Lines: []domain.CartLine{
			{ProductID: 1, Quantity: 2, AddedAt: time.Now()},
		},
	}
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(cart.ID), string(data)))

	got, err := c.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Len(t, got.Lines, 1)
	assert.Equal(t, domain.CartStatusOpen, got.Status)
}

func TestGet_CacheMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("bad"), "{not json"))

	_, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSetThenGet_RoundTrip(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{ID: "cart-2", Status: domain.CartStatusOpen}
	require.NoError(t, c.Set(ctx, cart.ID, cart))
	assert.True(t, mr.Exists(cacheKey(cart.ID)))

	got, err := c.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
}

func TestDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{ID: "cart-3", Status: domain.CartStatusOpen}
	require.NoError(t, c.Set(ctx, cart.ID, cart))
	require.NoError(t, c.Delete(ctx, cart.ID))
	assert.False(t, mr.Exists(cacheKey(cart.ID)))

	_, err := c.Get(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
