package postgres

import (
	"context"
	"testing"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(kind domain.RecordKind) *domain.PendingRecord {
	return &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      kind,
		WalletID:  uuid.New(),
		CoinID:    "btc",
		Address:   "bc1qdeposit",
		Amount:    money.MustParse("BTC", "0.1"),
		Status:    domain.RecordStatusPending,
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute).Truncate(time.Microsecond),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func recordColumns() []string {
	return []string{"id", "kind", "wallet_id", "coin_id", "address", "tx_id", "amount",
		"status", "expires_at", "transaction_id", "flag_reason", "created_at", "completed_at"}
}

func recordRow(rec *domain.PendingRecord) *pgxmock.Rows {
	return pgxmock.NewRows(recordColumns()).AddRow(
		rec.ID, rec.Kind, rec.WalletID, rec.CoinID, rec.Address, rec.TxID,
		rec.Amount.Amount().String(), rec.Status, rec.ExpiresAt,
		rec.TransactionID, rec.FlagReason, rec.CreatedAt, rec.CompletedAt,
	)
}

func TestRecordRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	rec := newTestRecord(domain.RecordKindDeposit)

	mock.ExpectExec("INSERT INTO pending_records").
		WithArgs(rec.ID, rec.Kind, rec.WalletID, rec.CoinID, rec.Address, rec.TxID,
			"0.1", rec.Status, rec.ExpiresAt, rec.TransactionID, rec.FlagReason,
			rec.CreatedAt, rec.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_GetOpenByAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	rec := newTestRecord(domain.RecordKindDeposit)

	mock.ExpectQuery("SELECT .+ FROM pending_records WHERE coin_id .+ AND address .+ DEPOSIT .+ PENDING").
		WithArgs(rec.CoinID, rec.Address).
		WillReturnRows(recordRow(rec))

	result, err := repo.GetOpenByAddress(context.Background(), rec.CoinID, rec.Address)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, rec.ID, result.ID)
	assert.True(t, result.Amount.Equal(rec.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_GetOpenByTxID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM pending_records WHERE coin_id .+ AND tx_id .+ WITHDRAWAL .+ PENDING").
		WithArgs("btc", "missing").
		WillReturnRows(pgxmock.NewRows(recordColumns()))

	result, err := repo.GetOpenByTxID(context.Background(), "btc", "missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_Complete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	recID, txnID := uuid.New(), uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pending_records SET status = 'COMPLETED'").
		WithArgs(txnID, at, recID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Complete(context.Background(), tx, recID, txnID, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_Complete_AlreadyTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	recID := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pending_records SET status = 'COMPLETED'").
		WithArgs(pgxmock.AnyArg(), at, recID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Complete(context.Background(), tx, recID, uuid.New(), at)
	assert.Error(t, err, "the PENDING guard rejects a second terminal transition")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_Cancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	recID := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pending_records SET status = 'CANCELED'").
		WithArgs(at, recID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Cancel(context.Background(), tx, recID, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_ListOverdue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	rec := newTestRecord(domain.RecordKindDeposit)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM pending_records WHERE status = 'PENDING' AND expires_at").
		WithArgs(now, 100).
		WillReturnRows(recordRow(rec))

	result, err := repo.ListOverdue(context.Background(), now, 100)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, rec.ID, result[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
