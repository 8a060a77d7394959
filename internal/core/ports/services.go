package ports

import (
	"context"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Infrastructure ports ---

// Lease is a held record lock. Release is safe to call more than once and is
// guaranteed to be called on every exit path of the holder.
type Lease interface {
	Release(ctx context.Context) error
}

// RecordLocker provides mutual exclusion keyed by record identity: an
// explicit lease (key, holder, TTL) in a shared store. The TTL is the safety
// net against crashed holders.
type RecordLocker interface {
	// Acquire attempts to take the lease. acquired=false means another
	// holder owns it; callers back off and retry.
	Acquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, acquired bool, err error)
}

// JobKind discriminates queued work.
type JobKind string

const (
	JobReconcile JobKind = "reconcile" // process a canonical transaction
	JobExpire    JobKind = "expire"    // evaluate an overdue pending record
)

// Job is one unit of asynchronous work.
type Job struct {
	Kind        JobKind             `json:"kind"`
	Attempt     int                 `json:"attempt"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
	RecordID    uuid.UUID           `json:"record_id,omitempty"`
}

// JobQueue hands webhook-derived work to the worker pool. Delivery is
// at-least-once; consumers must be idempotent.
type JobQueue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to timeout and returns (nil, nil) when no job arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
}

// EventPublisher broadcasts domain events to the presentation layer. Called
// synchronously after a committed state transition; the transport is an
// external collaborator.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// PriceCache stores last-known market data so price reads degrade gracefully
// when the upstream source is unavailable.
type PriceCache interface {
	Get(ctx context.Context, coinID string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, coinID string, price decimal.Decimal, ttl time.Duration) error
}

// CredentialSealer seals and opens wallet secret material with a
// passphrase-derived key. Plaintext passphrases are never persisted.
type CredentialSealer interface {
	Seal(plaintext, passphrase string) (string, error)
	Open(sealed, passphrase string) (string, error)
}

// HealthChecker verifies one dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}

// --- Service ports (business logic) ---

// Reconciler is the transaction lifecycle engine. It applies balance changes
// exactly once per external event, guarded by per-record locking.
type Reconciler interface {
	// ProcessTransaction advances the pending record matched by the canonical
	// transaction. Duplicate deliveries after completion are no-ops that may
	// still refresh the confirmation count.
	ProcessTransaction(ctx context.Context, t *domain.Transaction) error
	// CancelOverdue cancels the record if, re-checked under the lock, it is
	// still pending past its deadline. A late-arriving completion always wins.
	CancelOverdue(ctx context.Context, recordID uuid.UUID) error
}

// Ingestor receives provider webhooks, resolves them to a coin and wallet,
// converts the payload through the adapter, and enqueues exactly one job.
type Ingestor interface {
	// HandleWebhook never surfaces failures the provider could misread as
	// retryable errors: unknown coins and irrelevant payloads are silent no-ops.
	HandleWebhook(ctx context.Context, coinID, walletID string, payload []byte) error
}

// WalletService provisions wallets/addresses and initiates transfers.
type WalletService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	CreateAddress(ctx context.Context, req CreateAddressRequest) (*domain.Address, error)
	Send(ctx context.Context, req SendRequest) (*domain.PendingRecord, error)
	CreateDepositIntent(ctx context.Context, req DepositIntentRequest) (*domain.PendingRecord, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
}

// CreateWalletRequest holds validated input for wallet provisioning.
type CreateWalletRequest struct {
	OwnerID    uuid.UUID
	CoinID     string
	Passphrase string
}

// CreateAddressRequest holds validated input for address derivation.
type CreateAddressRequest struct {
	WalletID   uuid.UUID
	Passphrase string
	Label      string
}

// SendRequest holds validated input for an outbound transfer.
type SendRequest struct {
	WalletID   uuid.UUID
	Address    string
	Amount     money.Money
	Passphrase string
}

// DepositIntentRequest opens a pending deposit record bound to an address.
type DepositIntentRequest struct {
	WalletID  uuid.UUID
	AddressID uuid.UUID
	Amount    money.Money
}

// ConsolidationService sweeps confirmed deposit-address balances into the
// primary holding, for adapters that support it.
type ConsolidationService interface {
	SweepCoin(ctx context.Context, coinID, passphrase string) error
}

// MarketService serves price data for configured coins.
type MarketService interface {
	Price(ctx context.Context, coinID string) (decimal.Decimal, error)
	PriceChange(ctx context.Context, coinID string) (decimal.Decimal, error)
	Chart(ctx context.Context, coinID, interval string) ([]MarketPoint, error)
}
