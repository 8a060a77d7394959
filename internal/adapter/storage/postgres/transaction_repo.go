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

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Upsert inserts the transaction or refreshes an existing (coin_id, tx_id)
// row. The unique constraint on that pair is the idempotency barrier for
// redelivered webhooks: a conflict never duplicates the row, it only bumps
// confirmations, status and the raw payload. Reports whether a new row was
// created and rewrites t.ID with the canonical row id.
func (r *TransactionRepo) Upsert(ctx context.Context, tx pgx.Tx, t *domain.Transaction) (bool, error) {
	query := `INSERT INTO transactions (id, coin_id, tx_id, wallet_id, direction, address, amount,
		fee, fee_currency, confirmations, block_hash, raw_payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (coin_id, tx_id) DO UPDATE SET
			confirmations = GREATEST(transactions.confirmations, EXCLUDED.confirmations),
			status = EXCLUDED.status,
			raw_payload = EXCLUDED.raw_payload,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS created`

	var feeAmount, feeCurrency *string
	if t.Fee != nil {
		amt := t.Fee.Amount().String()
		cur := t.Fee.Currency()
		feeAmount, feeCurrency = &amt, &cur
	}

	var created bool
	err := tx.QueryRow(ctx, query,
		t.ID, t.CoinID, t.TxID, t.WalletID, t.Direction, t.Address,
		t.Amount.Amount().String(), feeAmount, feeCurrency,
		t.Confirmations, t.BlockHash, t.RawPayload, t.Status,
		t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID, &created)
	if err != nil {
		return false, fmt.Errorf("upsert transaction: %w", err)
	}
	return created, nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := transactionSelect + ` WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByKey fetches a transaction by its (coin, backend tx id) identity.
func (r *TransactionRepo) GetByKey(ctx context.Context, coinID, txID string) (*domain.Transaction, error) {
	query := transactionSelect + ` WHERE coin_id = $1 AND tx_id = $2`

	return scanTransaction(r.pool.QueryRow(ctx, query, coinID, txID))
}

// ListByWallet fetches the wallet's most recent transactions.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := transactionSelect + ` WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

const transactionSelect = `SELECT id, coin_id, tx_id, wallet_id, direction, address, amount,
	fee, fee_currency, confirmations, block_hash, raw_payload, status, created_at, updated_at
	FROM transactions`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func scanTransactionRow(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var amount string
	var feeAmount, feeCurrency *string
	err := row.Scan(
		&t.ID, &t.CoinID, &t.TxID, &t.WalletID, &t.Direction, &t.Address,
		&amount, &feeAmount, &feeCurrency,
		&t.Confirmations, &t.BlockHash, &t.RawPayload, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Amount, err = money.Parse(strings.ToUpper(t.CoinID), amount)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	if feeAmount != nil && feeCurrency != nil {
		fee, err := money.Parse(*feeCurrency, *feeAmount)
		if err != nil {
			return nil, fmt.Errorf("parse transaction fee: %w", err)
		}
		t.Fee = &fee
	}
	return t, nil
}
