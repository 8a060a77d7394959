package ports

import (
	"context"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerAndCoin(ctx context.Context, ownerID uuid.UUID, coinID string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance money.Money) error
}

// AddressRepository defines persistence operations for receiving addresses.
type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByAddress(ctx context.Context, coinID, address string) (*domain.Address, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Address, error)
	ListSweepable(ctx context.Context, coinID string) ([]domain.Address, error)
	MarkSwept(ctx context.Context, id uuid.UUID) error
	NextDerivationIndex(ctx context.Context, walletID uuid.UUID) (uint32, error)
}

// TransactionRepository persists canonical transactions. The (coin, backend
// tx id) pair is unique; Upsert is the idempotency barrier for redelivered
// webhooks.
type TransactionRepository interface {
	// Upsert inserts the transaction or, when the (coin, tx id) row already
	// exists, refreshes confirmations/status/raw payload only. It reports
	// whether a new row was created.
	Upsert(ctx context.Context, tx pgx.Tx, t *domain.Transaction) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByKey(ctx context.Context, coinID, txID string) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error)
}

// RecordRepository persists pending financial records.
type RecordRepository interface {
	Create(ctx context.Context, r *domain.PendingRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error)
	// GetByIDForUpdate re-reads the record under a row lock. The engine calls
	// this inside the lease before every terminal transition.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PendingRecord, error)
	GetOpenByAddress(ctx context.Context, coinID, address string) (*domain.PendingRecord, error)
	GetOpenByTxID(ctx context.Context, coinID, txID string) (*domain.PendingRecord, error)
	// Complete marks the record completed and links the canonical transaction.
	Complete(ctx context.Context, tx pgx.Tx, id uuid.UUID, transactionID uuid.UUID, at time.Time) error
	Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	Flag(ctx context.Context, id uuid.UUID, reason string) error
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.PendingRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
