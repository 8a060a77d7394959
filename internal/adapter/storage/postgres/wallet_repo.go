package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, coin_id, credential_enc, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.CoinID, w.CredentialEnc,
		w.Balance.Amount().String(), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, coin_id, credential_enc, balance, created_at, updated_at
		FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwnerAndCoin fetches a wallet by owner and coin (non-locking read).
func (r *WalletRepo) GetByOwnerAndCoin(ctx context.Context, ownerID uuid.UUID, coinID string) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, coin_id, credential_enc, balance, created_at, updated_at
		FROM wallets WHERE owner_id = $1 AND coin_id = $2`

	return scanWallet(r.pool.QueryRow(ctx, query, ownerID, coinID))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, coin_id, credential_enc, balance, created_at, updated_at
		FROM wallets WHERE id = $1 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, id))
}

// UpdateBalance updates a wallet's balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance money.Money) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance.Amount().String(), walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// scanWallet reads one wallet row, reconstructing the Money balance from the
// stored decimal string and the coin identifier.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance string
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.CoinID, &w.CredentialEnc,
		&balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	w.Balance, err = money.Parse(strings.ToUpper(w.CoinID), balance)
	if err != nil {
		return nil, fmt.Errorf("parse wallet balance: %w", err)
	}
	return w, nil
}
