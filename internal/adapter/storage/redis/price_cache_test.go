package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCache_RoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)
	ctx := context.Background()

	price := decimal.RequireFromString("64123.55")
	require.NoError(t, cache.Set(ctx, "btc", price, time.Minute))

	got, ok, err := cache.Get(ctx, "btc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(price))
}

func TestPriceCache_Miss(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)

	_, ok, err := cache.Get(context.Background(), "eth")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriceCache_Expiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "btc", decimal.NewFromInt(1), time.Second))
	s.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx, "btc")
	require.NoError(t, err)
	assert.False(t, ok)
}
