package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordRepo implements ports.RecordRepository.
type RecordRepo struct {
	pool Pool
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(pool Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// Create inserts a new pending record.
func (r *RecordRepo) Create(ctx context.Context, rec *domain.PendingRecord) error {
	query := `INSERT INTO pending_records (id, kind, wallet_id, coin_id, address, tx_id, amount,
		status, expires_at, transaction_id, flag_reason, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.Kind, rec.WalletID, rec.CoinID, rec.Address, rec.TxID,
		rec.Amount.Amount().String(), rec.Status, rec.ExpiresAt,
		rec.TransactionID, rec.FlagReason, rec.CreatedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending record: %w", err)
	}
	return nil
}

// GetByID fetches a record by UUID (without locking).
func (r *RecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	query := recordSelect + ` WHERE id = $1`

	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate re-reads the record under a row lock. The reconciliation
// engine calls this inside the lease before every terminal transition.
func (r *RecordRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PendingRecord, error) {
	query := recordSelect + ` WHERE id = $1 FOR UPDATE`

	return scanRecord(tx.QueryRow(ctx, query, id))
}

// GetOpenByAddress fetches the pending deposit bound to an address.
func (r *RecordRepo) GetOpenByAddress(ctx context.Context, coinID, address string) (*domain.PendingRecord, error) {
	query := recordSelect + ` WHERE coin_id = $1 AND address = $2 AND kind = 'DEPOSIT' AND status = 'PENDING'
		ORDER BY created_at ASC LIMIT 1`

	return scanRecord(r.pool.QueryRow(ctx, query, coinID, address))
}

// GetOpenByTxID fetches the pending withdrawal matching a backend tx id.
func (r *RecordRepo) GetOpenByTxID(ctx context.Context, coinID, txID string) (*domain.PendingRecord, error) {
	query := recordSelect + ` WHERE coin_id = $1 AND tx_id = $2 AND kind = 'WITHDRAWAL' AND status = 'PENDING'`

	return scanRecord(r.pool.QueryRow(ctx, query, coinID, txID))
}

// Complete marks a pending record completed and links the canonical
// transaction. The status guard makes the transition strictly one-way.
func (r *RecordRepo) Complete(ctx context.Context, tx pgx.Tx, id uuid.UUID, transactionID uuid.UUID, at time.Time) error {
	query := `UPDATE pending_records SET status = 'COMPLETED', transaction_id = $1, completed_at = $2
		WHERE id = $3 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, transactionID, at, id)
	if err != nil {
		return fmt.Errorf("complete pending record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending record %s not open", id)
	}
	return nil
}

// Cancel marks a pending record canceled. Terminal records are untouched.
func (r *RecordRepo) Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	query := `UPDATE pending_records SET status = 'CANCELED', completed_at = $1
		WHERE id = $2 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("cancel pending record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending record %s not open", id)
	}
	return nil
}

// Flag stores a diagnostic reason on a record that exhausted its processing
// budget. The record stays pending for operator review.
func (r *RecordRepo) Flag(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE pending_records SET flag_reason = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, reason, id)
	if err != nil {
		return fmt.Errorf("flag pending record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending record not found: %s", id)
	}
	return nil
}

// ListOverdue fetches pending records whose expiry deadline has passed.
func (r *RecordRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.PendingRecord, error) {
	query := recordSelect + ` WHERE status = 'PENDING' AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue records: %w", err)
	}
	defer rows.Close()

	var recs []domain.PendingRecord
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return recs, nil
}

const recordSelect = `SELECT id, kind, wallet_id, coin_id, address, tx_id, amount,
	status, expires_at, transaction_id, flag_reason, created_at, completed_at
	FROM pending_records`

func scanRecord(row pgx.Row) (*domain.PendingRecord, error) {
	rec, err := scanRecordRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanRecordRow(row pgx.Row) (*domain.PendingRecord, error) {
	rec := &domain.PendingRecord{}
	var amount string
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.WalletID, &rec.CoinID, &rec.Address, &rec.TxID,
		&amount, &rec.Status, &rec.ExpiresAt,
		&rec.TransactionID, &rec.FlagReason, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pending record: %w", err)
	}
	rec.Amount, err = money.Parse(strings.ToUpper(rec.CoinID), amount)
	if err != nil {
		return nil, fmt.Errorf("parse record amount: %w", err)
	}
	return rec, nil
}
