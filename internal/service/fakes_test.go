package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// fakeTx implements pgx.Tx for testing.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(_ context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(_ context.Context) error { t.rolledBack = true; return nil }

type fakeTransactor struct {
	txs []*fakeTx
}

func (f *fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	f.txs = append(f.txs, tx)
	return tx, nil
}

// fakeWalletRepo is an in-memory ports.WalletRepository.
type fakeWalletRepo struct {
	mu             sync.Mutex
	wallets        map[uuid.UUID]*domain.Wallet
	balanceUpdates int
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (f *fakeWalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *w
	f.wallets[w.ID] = &cp
	return nil
}

func (f *fakeWalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWalletRepo) GetByOwnerAndCoin(_ context.Context, ownerID uuid.UUID, coinID string) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.OwnerID == ownerID && w.CoinID == coinID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWalletRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeWalletRepo) UpdateBalance(_ context.Context, _ pgx.Tx, walletID uuid.UUID, balance money.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %s not found", walletID)
	}
	w.Balance = balance
	f.balanceUpdates++
	return nil
}

// fakeAddressRepo is an in-memory ports.AddressRepository.
type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses []domain.Address
	swept     map[uuid.UUID]bool
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{swept: make(map[uuid.UUID]bool)}
}

func (f *fakeAddressRepo) Create(_ context.Context, a *domain.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses = append(f.addresses, *a)
	return nil
}

func (f *fakeAddressRepo) GetByAddress(_ context.Context, coinID, address string) (*domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.addresses {
		if f.addresses[i].CoinID == coinID && f.addresses[i].Address == address {
			cp := f.addresses[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAddressRepo) ListByWallet(_ context.Context, walletID uuid.UUID) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Address
	for i := range f.addresses {
		if f.addresses[i].WalletID == walletID {
			out = append(out, f.addresses[i])
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) ListSweepable(_ context.Context, coinID string) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Address
	for i := range f.addresses {
		a := f.addresses[i]
		if a.CoinID == coinID && !a.Swept && !f.swept[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) MarkSwept(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept[id] = true
	return nil
}

func (f *fakeAddressRepo) NextDerivationIndex(_ context.Context, walletID uuid.UUID) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n uint32
	for i := range f.addresses {
		if f.addresses[i].WalletID == walletID {
			n++
		}
	}
	return n + 1, nil
}

// fakeTransactionRepo is an in-memory ports.TransactionRepository keyed by
// (coin, tx id), mirroring the unique constraint of the real table.
type fakeTransactionRepo struct {
	mu      sync.Mutex
	byKey   map[string]*domain.Transaction
	upserts int
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byKey: make(map[string]*domain.Transaction)}
}

func (f *fakeTransactionRepo) Upsert(_ context.Context, _ pgx.Tx, t *domain.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	existing, ok := f.byKey[t.Key()]
	if ok {
		if t.Confirmations > existing.Confirmations {
			existing.Confirmations = t.Confirmations
		}
		existing.Status = t.Status
		t.ID = existing.ID
		t.Confirmations = existing.Confirmations
		return false, nil
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	f.byKey[t.Key()] = &cp
	return true, nil
}

func (f *fakeTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byKey {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionRepo) GetByKey(_ context.Context, coinID, txID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byKey[domain.BuildTransactionKey(coinID, txID)]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactionRepo) ListByWallet(_ context.Context, walletID uuid.UUID, _ int) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.byKey {
		if t.WalletID == walletID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// fakeRecordRepo is an in-memory ports.RecordRepository enforcing the
// pending -> terminal guard the real repository enforces in SQL.
type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.PendingRecord
	flags   map[uuid.UUID]string
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records: make(map[uuid.UUID]*domain.PendingRecord),
		flags:   make(map[uuid.UUID]string),
	}
}

func (f *fakeRecordRepo) Create(_ context.Context, r *domain.PendingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecordRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.PendingRecord, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRecordRepo) GetOpenByAddress(_ context.Context, coinID, address string) (*domain.PendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Kind == domain.RecordKindDeposit && r.Status == domain.RecordStatusPending &&
			r.CoinID == coinID && r.Address == address {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) GetOpenByTxID(_ context.Context, coinID, txID string) (*domain.PendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Kind == domain.RecordKindWithdrawal && r.Status == domain.RecordStatusPending &&
			r.CoinID == coinID && r.TxID == txID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) Complete(_ context.Context, _ pgx.Tx, id, transactionID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.Status != domain.RecordStatusPending {
		return fmt.Errorf("pending record %s not open", id)
	}
	r.Status = domain.RecordStatusCompleted
	r.TransactionID = &transactionID
	r.CompletedAt = &at
	return nil
}

func (f *fakeRecordRepo) Cancel(_ context.Context, _ pgx.Tx, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.Status != domain.RecordStatusPending {
		return fmt.Errorf("pending record %s not open", id)
	}
	r.Status = domain.RecordStatusCanceled
	r.CompletedAt = &at
	return nil
}

func (f *fakeRecordRepo) Flag(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[id] = reason
	return nil
}

func (f *fakeRecordRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.PendingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PendingRecord
	for _, r := range f.records {
		if r.IsOverdue(now) && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

// alwaysFreeLocker grants every lease. Contention scenarios use the gomock
// RecordLocker instead.
type alwaysFreeLocker struct{}

type noopLease struct{}

func (noopLease) Release(_ context.Context) error { return nil }

func (alwaysFreeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (ports.Lease, bool, error) {
	return noopLease{}, true, nil
}

// nopPublisher swallows events.
type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ domain.Event) error { return nil }

// stubAdapter is a canned-response ports.CoinAdapter.
type stubAdapter struct {
	coin domain.Coin

	wallet    *domain.Wallet
	walletErr error

	address    *domain.Address
	addressErr error

	sendTx  *domain.Transaction
	sendErr error

	webhookTx  *domain.Transaction
	webhookErr error

	webhookURLs []string

	price decimal.Decimal
}

func (a *stubAdapter) Identity() domain.Coin { return a.coin }

func (a *stubAdapter) CreateWallet(_ context.Context, ownerID uuid.UUID, _ string) (*domain.Wallet, error) {
	if a.walletErr != nil {
		return nil, a.walletErr
	}
	if a.wallet != nil {
		return a.wallet, nil
	}
	return &domain.Wallet{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		CoinID:        a.coin.Identifier,
		CredentialEnc: "sealed",
		Balance:       money.Zero(a.coin.CurrencyCode()),
	}, nil
}

func (a *stubAdapter) CreateAddress(_ context.Context, w *domain.Wallet, _, label string) (*domain.Address, error) {
	if a.addressErr != nil {
		return nil, a.addressErr
	}
	if a.address != nil {
		return a.address, nil
	}
	return &domain.Address{
		ID:       uuid.New(),
		WalletID: w.ID,
		CoinID:   a.coin.Identifier,
		Address:  "addr-" + uuid.NewString()[:8],
		Label:    label,
	}, nil
}

func (a *stubAdapter) Send(_ context.Context, _ *domain.Wallet, _ string, _ money.Money, _ string) (*domain.Transaction, error) {
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	return a.sendTx, nil
}

func (a *stubAdapter) GetTransaction(_ context.Context, _ *domain.Wallet, _ string) (*domain.Transaction, error) {
	return a.sendTx, nil
}

func (a *stubAdapter) HandleTransactionWebhook(_ context.Context, _ *domain.Wallet, _ []byte) (*domain.Transaction, error) {
	return a.webhookTx, a.webhookErr
}

func (a *stubAdapter) SetTransactionWebhook(_ context.Context, _ *domain.Wallet, callbackURL string, _ int64) error {
	a.webhookURLs = append(a.webhookURLs, callbackURL)
	return nil
}

func (a *stubAdapter) ResetTransactionWebhook(ctx context.Context, w *domain.Wallet, callbackURL string, minConfirmations int64) error {
	return a.SetTransactionWebhook(ctx, w, callbackURL, minConfirmations)
}

func (a *stubAdapter) DollarPrice(_ context.Context) (decimal.Decimal, error) {
	return a.price, nil
}

func (a *stubAdapter) DollarPriceChange(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (a *stubAdapter) MarketChart(_ context.Context, _ string) ([]ports.MarketPoint, error) {
	return []ports.MarketPoint{{Timestamp: 0, Price: a.price}}, nil
}

func (a *stubAdapter) EstimateTransactionFee(_ context.Context, amount money.Money, _ int) (money.Money, error) {
	return money.Zero(amount.Currency()), nil
}

func (a *stubAdapter) MinimumTransferable() money.Money {
	return money.Zero(a.coin.CurrencyCode())
}

func (a *stubAdapter) MaximumTransferable() money.Money {
	return money.MustParse(a.coin.CurrencyCode(), "1000000")
}

// stubConsolidator adds the optional sweep capability to stubAdapter.
type stubConsolidator struct {
	stubAdapter
	swept           []string
	consolidateErrs map[string]error
}

func (a *stubConsolidator) Consolidate(_ context.Context, _ *domain.Wallet, addr *domain.Address, _ string) error {
	if err, ok := a.consolidateErrs[addr.Address]; ok {
		return err
	}
	a.swept = append(a.swept, addr.Address)
	return nil
}
