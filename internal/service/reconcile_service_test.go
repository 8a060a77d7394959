package service

import (
	"context"
	"testing"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/internal/core/ports/mocks"
	"walletbridge/internal/registry"
	"walletbridge/pkg/apperror"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var btcCoin = domain.Coin{
	Identifier:       "btc",
	Name:             "Bitcoin",
	Precision:        8,
	MinConfirmations: 3,
	DepositExpiry:    30 * time.Minute,
}

type reconcileDeps struct {
	svc        *ReconcileServiceImpl
	txRepo     *fakeTransactionRepo
	recordRepo *fakeRecordRepo
	walletRepo *fakeWalletRepo
	transactor *fakeTransactor
}

func setupReconciler(t *testing.T, locker ports.RecordLocker, publisher ports.EventPublisher) *reconcileDeps {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(&stubAdapter{coin: btcCoin}))

	d := &reconcileDeps{
		txRepo:     newFakeTransactionRepo(),
		recordRepo: newFakeRecordRepo(),
		walletRepo: newFakeWalletRepo(),
		transactor: &fakeTransactor{},
	}
	d.svc = NewReconcileService(
		reg, d.transactor, d.txRepo, d.recordRepo, d.walletRepo,
		locker, publisher, zerolog.Nop(),
	)
	return d
}

func seedWallet(t *testing.T, d *reconcileDeps, balance string) *domain.Wallet {
	t.Helper()
	w := &domain.Wallet{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		CoinID:  "btc",
		Balance: money.MustParse("BTC", balance),
	}
	require.NoError(t, d.walletRepo.Create(context.Background(), w))
	return w
}

func seedDeposit(t *testing.T, d *reconcileDeps, w *domain.Wallet, address string) *domain.PendingRecord {
	t.Helper()
	rec := &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      domain.RecordKindDeposit,
		WalletID:  w.ID,
		CoinID:    "btc",
		Address:   address,
		Amount:    money.MustParse("BTC", "0.5"),
		Status:    domain.RecordStatusPending,
		ExpiresAt: time.Now().Add(30 * time.Minute),
		CreatedAt: time.Now(),
	}
	require.NoError(t, d.recordRepo.Create(context.Background(), rec))
	return rec
}

func depositTx(address, txID, amount string, confirmations int64) *domain.Transaction {
	return &domain.Transaction{
		CoinID:        "btc",
		TxID:          txID,
		Direction:     domain.DirectionReceive,
		Address:       address,
		Amount:        money.MustParse("BTC", amount),
		Confirmations: confirmations,
		Status:        domain.TransactionStatusConfirmed,
	}
}

func TestReconcile_DepositBelowThresholdStaysPending(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "1")
	rec := seedDeposit(t, d, w, "bc1qdeposit")
	ctx := context.Background()

	tx := depositTx("bc1qdeposit", "tx-1", "0.5", 1)
	tx.Status = domain.TransactionStatusPending
	require.NoError(t, d.svc.ProcessTransaction(ctx, tx))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusPending, got.Status)

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "1")), "no credit below the threshold")
	assert.Equal(t, 0, d.walletRepo.balanceUpdates)

	// The canonical transaction is persisted regardless.
	stored, err := d.txRepo.GetByKey(ctx, "btc", "tx-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.Confirmations)
}

func TestReconcile_DepositCompletesAtThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockEventPublisher(ctrl)

	d := setupReconciler(t, alwaysFreeLocker{}, publisher)
	w := seedWallet(t, d, "1")
	rec := seedDeposit(t, d, w, "bc1qdeposit")
	ctx := context.Background()

	publisher.EXPECT().
		Publish(gomock.Any(), gomock.AssignableToTypeOf(domain.TransactionRecordSaved{})).
		DoAndReturn(func(_ context.Context, e domain.Event) error {
			saved := e.(domain.TransactionRecordSaved)
			assert.Equal(t, rec.ID, saved.RecordID)
			assert.True(t, saved.Confirmed)
			return nil
		})

	// Chain delivered slightly more than the intent anticipated.
	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.6", 3)))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCompleted, got.Status)
	require.NotNil(t, got.TransactionID)

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "1.6")), "credits the observed amount")
}

func TestReconcile_DuplicateDeliveryIsFinanciallyIdempotent(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "0")
	seedDeposit(t, d, w, "bc1qdeposit")
	ctx := context.Background()

	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 3)))
	for i := 0; i < 5; i++ {
		require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 3+int64(i))))
	}

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "0.5")))
	assert.Equal(t, 1, d.walletRepo.balanceUpdates, "exactly one credit across six deliveries")

	// Confirmations still advanced.
	stored, err := d.txRepo.GetByKey(ctx, "btc", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.Confirmations)
}

func TestReconcile_ConfirmationsNeverDecrease(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "0")
	seedDeposit(t, d, w, "bc1qdeposit")
	ctx := context.Background()

	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 5)))
	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 2)))

	stored, err := d.txRepo.GetByKey(ctx, "btc", "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Confirmations)
}

func TestReconcile_WithdrawalDebitsAmountAndFee(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "2")
	ctx := context.Background()

	rec := &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      domain.RecordKindWithdrawal,
		WalletID:  w.ID,
		CoinID:    "btc",
		Address:   "bc1qdest",
		TxID:      "tx-out",
		Amount:    money.MustParse("BTC", "0.5"),
		Status:    domain.RecordStatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, d.recordRepo.Create(ctx, rec))

	fee := money.MustParse("BTC", "0.0001")
	tx := &domain.Transaction{
		CoinID:        "btc",
		TxID:          "tx-out",
		Direction:     domain.DirectionSend,
		Address:       "bc1qdest",
		Amount:        money.MustParse("BTC", "0.5"),
		Fee:           &fee,
		Confirmations: 3,
		Status:        domain.TransactionStatusConfirmed,
	}
	require.NoError(t, d.svc.ProcessTransaction(ctx, tx))

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "1.4999")))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCompleted, got.Status)
}

func TestReconcile_ForeignCurrencyFeeNotDebited(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "10")
	ctx := context.Background()

	rec := &domain.PendingRecord{
		ID:        uuid.New(),
		Kind:      domain.RecordKindWithdrawal,
		WalletID:  w.ID,
		CoinID:    "btc",
		TxID:      "tx-out",
		Amount:    money.MustParse("BTC", "4"),
		Status:    domain.RecordStatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, d.recordRepo.Create(ctx, rec))

	// Gas paid in the chain's native asset, not this wallet's currency.
	fee := money.MustParse("ETH", "0.002")
	tx := &domain.Transaction{
		CoinID:        "btc",
		TxID:          "tx-out",
		Direction:     domain.DirectionSend,
		Amount:        money.MustParse("BTC", "4"),
		Fee:           &fee,
		Confirmations: 3,
		Status:        domain.TransactionStatusConfirmed,
	}
	require.NoError(t, d.svc.ProcessTransaction(ctx, tx))

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "6")))
}

func TestReconcile_FailedTransactionCancelsRecord(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "1")
	rec := seedDeposit(t, d, w, "bc1qdeposit")
	ctx := context.Background()

	tx := depositTx("bc1qdeposit", "tx-1", "0.5", 0)
	tx.Status = domain.TransactionStatusFailed
	require.NoError(t, d.svc.ProcessTransaction(ctx, tx))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCanceled, got.Status)
	assert.Equal(t, 0, d.walletRepo.balanceUpdates)
}

func TestReconcile_UnmatchedTransactionIsAuditedWithoutLocking(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	// No Acquire expectation: any lock attempt fails the test.
	locker := mocks.NewMockRecordLocker(ctrl)

	d := setupReconciler(t, locker, nopPublisher{})
	seedWallet(t, d, "1")
	ctx := context.Background()

	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qunknown", "tx-stray", "0.1", 3)))

	stored, err := d.txRepo.GetByKey(ctx, "btc", "tx-stray")
	require.NoError(t, err)
	require.NotNil(t, stored, "unmatched transactions are still persisted")
	assert.Equal(t, 0, d.walletRepo.balanceUpdates)
}

func TestReconcile_LockContentionSurfacesForRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	locker := mocks.NewMockRecordLocker(ctrl)
	locker.EXPECT().
		Acquire(gomock.Any(), gomock.Any(), recordLockTTL).
		Return(nil, false, nil)

	d := setupReconciler(t, locker, nopPublisher{})
	w := seedWallet(t, d, "1")
	seedDeposit(t, d, w, "bc1qdeposit")

	err := d.svc.ProcessTransaction(context.Background(), depositTx("bc1qdeposit", "tx-1", "0.5", 3))
	require.Error(t, err)
	assert.True(t, apperror.IsLockContention(err))
	assert.Equal(t, 0, d.walletRepo.balanceUpdates)
}

func TestReconcile_UnknownCoinIsTerminal(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})

	tx := depositTx("bc1q", "tx-1", "0.5", 3)
	tx.CoinID = "doge"
	err := d.svc.ProcessTransaction(context.Background(), tx)
	require.Error(t, err)
	assert.True(t, apperror.IsTerminal(err))
	assert.False(t, apperror.IsLockContention(err))
}

func TestReconcile_CancelOverdueCancelsStalePending(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "1")
	ctx := context.Background()

	rec := seedDeposit(t, d, w, "bc1qdeposit")
	stale, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, d.recordRepo.Create(ctx, stale)) // overwrite with past deadline

	require.NoError(t, d.svc.CancelOverdue(ctx, rec.ID))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCanceled, got.Status)
}

func TestReconcile_LateCompletionBeatsExpiry(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "0")
	ctx := context.Background()

	rec := seedDeposit(t, d, w, "bc1qdeposit")

	// Completion lands first, then the expiry job fires for the same record.
	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 3)))
	require.NoError(t, d.svc.CancelOverdue(ctx, rec.ID))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCompleted, got.Status, "expiry must not claw back a completion")

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "0.5")))
}

func TestReconcile_ConfirmationAfterExpiryIsNoop(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "1")
	ctx := context.Background()

	rec := seedDeposit(t, d, w, "bc1qdeposit")
	stale, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, d.recordRepo.Create(ctx, stale)) // overwrite with past deadline

	// Expiry fires first, then the confirming delivery arrives for the same
	// address and transaction.
	require.NoError(t, d.svc.CancelOverdue(ctx, rec.ID))
	require.NoError(t, d.svc.ProcessTransaction(ctx, depositTx("bc1qdeposit", "tx-1", "0.5", 3)))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusCanceled, got.Status, "a canceled record is terminal")

	wGot, err := d.walletRepo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, wGot.Balance.Equal(money.MustParse("BTC", "1")))
	assert.Equal(t, 0, d.walletRepo.balanceUpdates)

	// The delivery still leaves an audit trail.
	stored, err := d.txRepo.GetByKey(ctx, "btc", "tx-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestReconcile_CancelOverdueSkipsRecordStillInWindow(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	w := seedWallet(t, d, "1")
	ctx := context.Background()

	rec := seedDeposit(t, d, w, "bc1qdeposit") // expires 30m from now

	require.NoError(t, d.svc.CancelOverdue(ctx, rec.ID))

	got, err := d.recordRepo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusPending, got.Status)
}

func TestReconcile_CancelOverdueMissingRecordIsNoop(t *testing.T) {
	d := setupReconciler(t, alwaysFreeLocker{}, nopPublisher{})
	require.NoError(t, d.svc.CancelOverdue(context.Background(), uuid.New()))
}
