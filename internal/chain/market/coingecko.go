package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// DefaultCoinGeckoURL is the public CoinGecko API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches USD market data from the CoinGecko simple price API.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

// NewCoinGecko creates a CoinGecko source. An empty baseURL selects the
// public API.
func NewCoinGecko(client *http.Client, baseURL string) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{baseURL: baseURL, client: client}
}

// PriceSource returns a FetchFunc for the asset's current USD price.
func (g *CoinGecko) PriceSource(assetID string) FetchFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		quote, err := g.fetch(ctx, assetID)
		if err != nil {
			return decimal.Zero, err
		}
		return quote.USD, nil
	}
}

// ChangeSource returns a FetchFunc for the asset's 24h USD change percentage.
func (g *CoinGecko) ChangeSource(assetID string) FetchFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		quote, err := g.fetch(ctx, assetID)
		if err != nil {
			return decimal.Zero, err
		}
		return quote.USDChange, nil
	}
}

type geckoQuote struct {
	USD       decimal.Decimal `json:"usd"`
	USDChange decimal.Decimal `json:"usd_24h_change"`
}

func (g *CoinGecko) fetch(ctx context.Context, assetID string) (*geckoQuote, error) {
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		g.baseURL, url.QueryEscape(assetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("market: build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market: fetch %s: %w", assetID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market: fetch %s: status %d", assetID, resp.StatusCode)
	}

	var payload map[string]geckoQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("market: decode response: %w", err)
	}
	quote, ok := payload[assetID]
	if !ok {
		return nil, fmt.Errorf("market: no quote for %s", assetID)
	}
	return &quote, nil
}
