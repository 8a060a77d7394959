package ports

import (
	"context"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoinAdapter is the uniform capability surface every currency backend
// implements. One instance per configured coin, owned by the registry for
// the process lifetime. Adapters retry transient backend failures internally
// (bounded, with backoff) and surface only terminal, classified errors;
// every blocking call honours the passed context's deadline.
type CoinAdapter interface {
	// Identity returns the coin's reference metadata. Pure, no I/O.
	Identity() domain.Coin

	// CreateWallet provisions backend credential material for a new wallet.
	// The passphrase seals the material; it is never persisted in plaintext.
	CreateWallet(ctx context.Context, ownerID uuid.UUID, passphrase string) (*domain.Wallet, error)

	// CreateAddress derives a fresh receiving address for the wallet. Safe
	// to call concurrently for the same wallet; every call yields a distinct,
	// never-reused address.
	CreateAddress(ctx context.Context, w *domain.Wallet, passphrase, label string) (*domain.Address, error)

	// Send initiates an outbound transfer. It returns a definitive
	// Transaction handle or a definitive failure, never an ambiguous
	// "maybe sent": if the backend response is ambiguous the adapter
	// reconciles through GetTransaction before reporting.
	Send(ctx context.Context, w *domain.Wallet, address string, amount money.Money, passphrase string) (*domain.Transaction, error)

	// GetTransaction is an idempotent read of one backend transaction.
	GetTransaction(ctx context.Context, w *domain.Wallet, txID string) (*domain.Transaction, error)

	// HandleTransactionWebhook transforms a provider payload into a canonical
	// Transaction. It validates payload structure and authenticity first and
	// returns (nil, nil) for payloads irrelevant to this wallet.
	HandleTransactionWebhook(ctx context.Context, w *domain.Wallet, payload []byte) (*domain.Transaction, error)

	// SetTransactionWebhook registers the backend's notification channel for
	// the wallet. Idempotent: calling twice must not create duplicate
	// registrations.
	SetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error

	// ResetTransactionWebhook re-registers the notification channel.
	ResetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error

	// DollarPrice returns the current USD price. Degrades to the last known
	// value on upstream unavailability rather than failing.
	DollarPrice(ctx context.Context) (decimal.Decimal, error)

	// DollarPriceChange returns the 24h USD price change percentage.
	DollarPriceChange(ctx context.Context) (decimal.Decimal, error)

	// MarketChart returns price points over the given interval (e.g. "24h").
	MarketChart(ctx context.Context, interval string) ([]MarketPoint, error)

	// EstimateTransactionFee returns a conservative upper bound: downstream
	// consolidation and fee deduction assume the estimate is never exceeded.
	EstimateTransactionFee(ctx context.Context, amount money.Money, inputs int) (money.Money, error)

	// MinimumTransferable returns the smallest amount the backend accepts.
	MinimumTransferable() money.Money

	// MaximumTransferable returns the largest amount the backend accepts.
	MaximumTransferable() money.Money
}

// MarketPoint is one sample of a market chart.
type MarketPoint struct {
	Timestamp int64           `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// Consolidator is an optional adapter capability: sweeping funds from a
// deposit address into the wallet's primary holding. Discovered by type
// assertion, never by inheritance.
type Consolidator interface {
	// Consolidate sweeps the address. Invoking it on an already-swept
	// address is a no-op, not an error.
	Consolidate(ctx context.Context, w *domain.Wallet, addr *domain.Address, passphrase string) error
}

// NativeAsset is an optional adapter capability for token-on-chain assets
// that pay gas in a separate native asset.
type NativeAsset interface {
	FeeAddress(ctx context.Context, w *domain.Wallet) (string, error)
	NativeAssetID() string
}
