package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PriceCache implements ports.PriceCache, storing last-known market prices so
// reads degrade gracefully when the upstream source is down.
type PriceCache struct {
	client *goredis.Client
	prefix string
}

// NewPriceCache creates a new Redis-backed price cache.
func NewPriceCache(client *goredis.Client) *PriceCache {
	return &PriceCache{
		client: client,
		prefix: "price:",
	}
}

// Get returns the cached price for a coin, reporting whether one was found.
func (c *PriceCache) Get(ctx context.Context, coinID string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+coinID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis price get: %w", err)
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached price: %w", err)
	}
	return price, true, nil
}

// Set stores the price with a TTL.
func (c *PriceCache) Set(ctx context.Context, coinID string, price decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+coinID, price.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis price set: %w", err)
	}
	return nil
}
