package service

import (
	"context"

	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"

	"github.com/shopspring/decimal"
)

// MarketServiceImpl implements ports.MarketService by delegating to the
// per-coin adapters, which own caching and degradation behavior.
type MarketServiceImpl struct {
	registry *registry.Registry
}

// NewMarketService creates a new MarketServiceImpl.
func NewMarketService(reg *registry.Registry) *MarketServiceImpl {
	return &MarketServiceImpl{registry: reg}
}

// Price returns the coin's current USD price.
func (s *MarketServiceImpl) Price(ctx context.Context, coinID string) (decimal.Decimal, error) {
	adapter, err := s.registry.Resolve(coinID)
	if err != nil {
		return decimal.Zero, err
	}
	return adapter.DollarPrice(ctx)
}

// PriceChange returns the coin's 24h USD price change percentage.
func (s *MarketServiceImpl) PriceChange(ctx context.Context, coinID string) (decimal.Decimal, error) {
	adapter, err := s.registry.Resolve(coinID)
	if err != nil {
		return decimal.Zero, err
	}
	return adapter.DollarPriceChange(ctx)
}

// Chart returns price points over the given interval.
func (s *MarketServiceImpl) Chart(ctx context.Context, coinID, interval string) ([]ports.MarketPoint, error) {
	adapter, err := s.registry.Resolve(coinID)
	if err != nil {
		return nil, err
	}
	return adapter.MarketChart(ctx, interval)
}
