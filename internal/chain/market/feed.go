// Package market provides a price feed wrapper that degrades to the last
// known value when the upstream source is unavailable, so market data reads
// never propagate failure into the reconciliation path.
package market

import (
	"context"
	"fmt"
	"time"

	"walletbridge/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FetchFunc retrieves a fresh price from the upstream source.
type FetchFunc func(ctx context.Context) (decimal.Decimal, error)

// Feed wraps a fetch function with a last-known-value cache.
type Feed struct {
	coinID string
	fetch  FetchFunc
	cache  ports.PriceCache // nil disables caching
	ttl    time.Duration
	log    zerolog.Logger
}

// NewFeed creates a price feed for one coin.
func NewFeed(coinID string, fetch FetchFunc, cache ports.PriceCache, ttl time.Duration, log zerolog.Logger) *Feed {
	return &Feed{coinID: coinID, fetch: fetch, cache: cache, ttl: ttl, log: log}
}

// Price returns a fresh price when the upstream responds, caching it
// best-effort, and otherwise falls back to the cached last-known value.
func (f *Feed) Price(ctx context.Context) (decimal.Decimal, error) {
	price, err := f.fetch(ctx)
	if err == nil {
		if f.cache != nil {
			if cerr := f.cache.Set(ctx, f.coinID, price, f.ttl); cerr != nil {
				f.log.Warn().Err(cerr).Str("coin", f.coinID).Msg("price cache write failed")
			}
		}
		return price, nil
	}

	if f.cache != nil {
		cached, ok, cerr := f.cache.Get(ctx, f.coinID)
		if cerr == nil && ok {
			f.log.Warn().Err(err).Str("coin", f.coinID).Msg("price source unavailable, serving last known value")
			return cached, nil
		}
	}

	return decimal.Zero, fmt.Errorf("price for %s unavailable: %w", f.coinID, err)
}
