package postgres

import (
	"context"
	"errors"
	"fmt"

	"walletbridge/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddressRepo implements ports.AddressRepository.
type AddressRepo struct {
	pool Pool
}

// NewAddressRepo creates a new AddressRepo.
func NewAddressRepo(pool Pool) *AddressRepo {
	return &AddressRepo{pool: pool}
}

// Create inserts a new receiving address.
func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	query := `INSERT INTO addresses (id, wallet_id, coin_id, address, label, derivation_path, swept, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.WalletID, a.CoinID, a.Address,
		a.Label, a.DerivationPath, a.Swept, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// GetByAddress fetches an address by its on-chain string for one coin.
func (r *AddressRepo) GetByAddress(ctx context.Context, coinID, address string) (*domain.Address, error) {
	query := `SELECT id, wallet_id, coin_id, address, label, derivation_path, swept, created_at
		FROM addresses WHERE coin_id = $1 AND address = $2`

	return scanAddress(r.pool.QueryRow(ctx, query, coinID, address))
}

// ListByWallet fetches all addresses of a wallet, newest first.
func (r *AddressRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Address, error) {
	query := `SELECT id, wallet_id, coin_id, address, label, derivation_path, swept, created_at
		FROM addresses WHERE wallet_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	return collectAddresses(rows)
}

// ListSweepable fetches unswept addresses of a coin, oldest first, so sweeps
// drain long-standing balances before recent ones.
func (r *AddressRepo) ListSweepable(ctx context.Context, coinID string) ([]domain.Address, error) {
	query := `SELECT id, wallet_id, coin_id, address, label, derivation_path, swept, created_at
		FROM addresses WHERE coin_id = $1 AND swept = FALSE ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, coinID)
	if err != nil {
		return nil, fmt.Errorf("list sweepable addresses: %w", err)
	}
	defer rows.Close()

	return collectAddresses(rows)
}

// MarkSwept flags an address as consolidated.
func (r *AddressRepo) MarkSwept(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE addresses SET swept = TRUE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark address swept: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("address not found: %s", id)
	}
	return nil
}

// NextDerivationIndex allocates the next HD index for a wallet. Address rows
// are never deleted, so the count is monotonic.
func (r *AddressRepo) NextDerivationIndex(ctx context.Context, walletID uuid.UUID) (uint32, error) {
	query := `SELECT COUNT(*) FROM addresses WHERE wallet_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	// Index 0 is the wallet's primary address, so derivation starts at 1.
	return uint32(count) + 1, nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	a := &domain.Address{}
	err := row.Scan(
		&a.ID, &a.WalletID, &a.CoinID, &a.Address,
		&a.Label, &a.DerivationPath, &a.Swept, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}
	return a, nil
}

func collectAddresses(rows pgx.Rows) ([]domain.Address, error) {
	var addrs []domain.Address
	for rows.Next() {
		a := domain.Address{}
		err := rows.Scan(
			&a.ID, &a.WalletID, &a.CoinID, &a.Address,
			&a.Label, &a.DerivationPath, &a.Swept, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}
	return addrs, nil
}
