package service

import (
	"context"
	"fmt"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// recordLockTTL bounds how long a crashed worker can hold a record lease.
// Comfortably above the worst-case transaction block below.
const recordLockTTL = 30 * time.Second

// ReconcileServiceImpl implements ports.Reconciler. Every terminal transition
// runs under a per-record lease plus a row lock, and balances move exactly
// once: the transaction upsert is the idempotency barrier and the record's
// pending -> terminal guard is the financial one.
type ReconcileServiceImpl struct {
	registry   *registry.Registry
	transactor ports.DBTransactor
	txRepo     ports.TransactionRepository
	recordRepo ports.RecordRepository
	walletRepo ports.WalletRepository
	locker     ports.RecordLocker
	publisher  ports.EventPublisher
	log        zerolog.Logger
}

// NewReconcileService creates a new ReconcileServiceImpl.
func NewReconcileService(
	reg *registry.Registry,
	transactor ports.DBTransactor,
	txRepo ports.TransactionRepository,
	recordRepo ports.RecordRepository,
	walletRepo ports.WalletRepository,
	locker ports.RecordLocker,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		registry:   reg,
		transactor: transactor,
		txRepo:     txRepo,
		recordRepo: recordRepo,
		walletRepo: walletRepo,
		locker:     locker,
		publisher:  publisher,
		log:        log,
	}
}

// ProcessTransaction advances the pending record matched by the canonical
// transaction. Redeliveries are absorbed by the transaction upsert and the
// record status guard; the only observable effect of a duplicate is a
// refreshed confirmation count.
func (s *ReconcileServiceImpl) ProcessTransaction(ctx context.Context, t *domain.Transaction) error {
	adapter, err := s.registry.Resolve(t.CoinID)
	if err != nil {
		return err
	}
	coin := adapter.Identity()

	record, err := s.matchRecord(ctx, t)
	if err != nil {
		return err
	}
	if record == nil {
		// No open record claims this transaction. Persist it anyway so the
		// movement is auditable; an intent created later will not match it
		// retroactively, by design of the open-record lookup.
		if err := s.persistUnmatched(ctx, t); err != nil {
			return err
		}
		s.log.Info().Str("key", t.Key()).Msg("unmatched transaction recorded")
		return nil
	}

	lease, acquired, err := s.locker.Acquire(ctx, record.LockKey(), recordLockTTL)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("acquire record lease: %w", err))
	}
	if !acquired {
		return apperror.ErrLockContention(record.LockKey())
	}
	defer lease.Release(ctx) //nolint:errcheck

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin reconcile tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.txRepo.Upsert(ctx, dbTx, t); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("upsert transaction %s: %w", t.Key(), err))
	}

	// Re-read under the row lock: the record may have gone terminal between
	// matching and acquiring the lease.
	record, err = s.recordRepo.GetByIDForUpdate(ctx, dbTx, record.ID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock record: %w", err))
	}
	if record == nil || record.IsTerminal() {
		// Confirmation bump only.
		if err := dbTx.Commit(ctx); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("commit confirmation refresh: %w", err))
		}
		return nil
	}

	now := time.Now().UTC()
	var confirmed bool
	switch {
	case t.Status == domain.TransactionStatusFailed:
		if err := s.recordRepo.Cancel(ctx, dbTx, record.ID, now); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("cancel record %s: %w", record.ID, err))
		}
		s.log.Info().
			Str("record_id", record.ID.String()).
			Str("tx_id", t.TxID).
			Msg("record canceled on backend failure")

	case t.IsConfirmedAt(coin.MinConfirmations):
		if err := s.complete(ctx, dbTx, record, t, now); err != nil {
			return err
		}
		confirmed = true

	default:
		// Below the confirmation threshold; the upsert already refreshed
		// the count.
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit reconcile: %w", err))
	}

	if confirmed || t.Status == domain.TransactionStatusFailed {
		s.notify(ctx, record, confirmed)
	}
	return nil
}

// CancelOverdue cancels the record if, re-checked under the lock, it is still
// pending past its deadline. A completion that landed in the meantime wins.
func (s *ReconcileServiceImpl) CancelOverdue(ctx context.Context, recordID uuid.UUID) error {
	lease, acquired, err := s.locker.Acquire(ctx, domain.BuildRecordLockKey(recordID), recordLockTTL)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("acquire record lease: %w", err))
	}
	if !acquired {
		return apperror.ErrLockContention(domain.BuildRecordLockKey(recordID))
	}
	defer lease.Release(ctx) //nolint:errcheck

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin expiry tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	record, err := s.recordRepo.GetByIDForUpdate(ctx, dbTx, recordID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock record: %w", err))
	}
	if record == nil || !record.IsOverdue(time.Now().UTC()) {
		return nil
	}

	if err := s.recordRepo.Cancel(ctx, dbTx, record.ID, time.Now().UTC()); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("cancel overdue record %s: %w", record.ID, err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit expiry: %w", err))
	}

	s.log.Info().Str("record_id", record.ID.String()).Msg("overdue record canceled")
	s.notify(ctx, record, false)
	return nil
}

// complete marks the record completed and applies the balance change: credit
// of the observed amount for deposits, debit of the recorded amount plus any
// same-currency fee for withdrawals.
func (s *ReconcileServiceImpl) complete(ctx context.Context, dbTx pgx.Tx, record *domain.PendingRecord, t *domain.Transaction, now time.Time) error {
	if err := s.recordRepo.Complete(ctx, dbTx, record.ID, t.ID, now); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("complete record %s: %w", record.ID, err))
	}

	// Lock order is always record first, wallet second.
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, record.WalletID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.InternalError(fmt.Errorf("record %s references missing wallet %s", record.ID, record.WalletID))
	}

	balance, err := s.applyMovement(wallet.Balance, record, t)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("apply movement for record %s: %w", record.ID, err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, balance); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}

	s.log.Info().
		Str("record_id", record.ID.String()).
		Str("tx_id", t.TxID).
		Str("kind", string(record.Kind)).
		Str("balance", balance.String()).
		Msg("record completed")
	return nil
}

func (s *ReconcileServiceImpl) applyMovement(balance money.Money, record *domain.PendingRecord, t *domain.Transaction) (money.Money, error) {
	if record.Kind == domain.RecordKindDeposit {
		// Credit what the chain actually delivered, not what the intent
		// anticipated.
		return balance.Add(t.Amount)
	}

	balance, err := balance.Sub(record.Amount)
	if err != nil {
		return money.Money{}, err
	}
	// Fees in a different asset (token gas) are paid from the hot wallet's
	// native holding, outside this balance.
	if t.Fee != nil && t.Fee.Currency() == balance.Currency() {
		balance, err = balance.Sub(*t.Fee)
		if err != nil {
			return money.Money{}, err
		}
	}
	if balance.IsNegative() {
		return money.Money{}, fmt.Errorf("balance would go negative: %s", balance)
	}
	return balance, nil
}

func (s *ReconcileServiceImpl) matchRecord(ctx context.Context, t *domain.Transaction) (*domain.PendingRecord, error) {
	var (
		record *domain.PendingRecord
		err    error
	)
	if t.Direction == domain.DirectionReceive {
		record, err = s.recordRepo.GetOpenByAddress(ctx, t.CoinID, t.Address)
	} else {
		record, err = s.recordRepo.GetOpenByTxID(ctx, t.CoinID, t.TxID)
	}
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("match record for %s: %w", t.Key(), err))
	}
	return record, nil
}

func (s *ReconcileServiceImpl) persistUnmatched(ctx context.Context, t *domain.Transaction) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin audit tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.txRepo.Upsert(ctx, dbTx, t); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("upsert unmatched transaction %s: %w", t.Key(), err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit audit tx: %w", err))
	}
	return nil
}

// notify broadcasts the record transition best-effort after commit.
func (s *ReconcileServiceImpl) notify(ctx context.Context, record *domain.PendingRecord, confirmed bool) {
	wallet, err := s.walletRepo.GetByID(ctx, record.WalletID)
	if err != nil || wallet == nil {
		s.log.Warn().Err(err).Str("record_id", record.ID.String()).Msg("owner lookup for event failed")
		return
	}
	event := domain.TransactionRecordSaved{
		RecordID:  record.ID,
		OwnerID:   wallet.OwnerID,
		Address:   record.Address,
		Confirmed: confirmed,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", event.Name()).Msg("event publish failed")
	}
}
