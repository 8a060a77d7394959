package simnet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errInsufficientFunds = errors.New("simnet: insufficient funds")
	errUnknownAddress    = errors.New("simnet: unknown address")
	errUnknownTx         = errors.New("simnet: unknown transaction")
	errSendRejected      = errors.New("simnet: send rejected")
)

// Backend is an in-process model of a blockchain node. It tracks address
// balances, transactions and webhook registrations, and lets tests drive
// confirmations and fee jitter deterministically.
type Backend struct {
	mu sync.Mutex

	addresses map[string]*backendAddress // address string -> state
	txs       map[string]*backendTx      // backend tx id -> state
	hot       map[uuid.UUID]decimal.Decimal
	webhooks  map[uuid.UUID]webhookRegistration
	seq       int

	baseFee decimal.Decimal
	// feeJitter scales the fee actually charged on a sweep or send. Values
	// in (0, 1] keep the adapter's estimate an upper bound; tests inject
	// randomized jitter to verify the conservative-estimate property.
	feeJitter func() decimal.Decimal

	sendFailures int // remaining sends to reject, for failure-path tests
}

type backendAddress struct {
	walletID uuid.UUID
	balance  decimal.Decimal
	swept    bool
}

type backendTx struct {
	id            string
	walletID      uuid.UUID
	address       string
	amount        decimal.Decimal
	fee           decimal.Decimal
	confirmations int64
	outbound      bool
}

type webhookRegistration struct {
	callbackURL      string
	minConfirmations int64
}

// NewBackend creates a model backend with the given base fee.
func NewBackend(baseFee decimal.Decimal) *Backend {
	return &Backend{
		addresses: make(map[string]*backendAddress),
		txs:       make(map[string]*backendTx),
		hot:       make(map[uuid.UUID]decimal.Decimal),
		webhooks:  make(map[uuid.UUID]webhookRegistration),
		baseFee:   baseFee,
		feeJitter: func() decimal.Decimal { return decimal.NewFromInt(1) },
	}
}

// SetFeeJitter installs a fee scaling function, used by property tests.
func (b *Backend) SetFeeJitter(jitter func() decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feeJitter = jitter
}

// FailNextSends makes the next n send attempts fail at the backend.
func (b *Backend) FailNextSends(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendFailures = n
}

// Fund credits an address, simulating an inbound deposit landing on chain.
func (b *Backend) Fund(address string, amount decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.addresses[address]; ok {
		a.balance = a.balance.Add(amount)
		a.swept = false
	}
}

// FundHot credits a wallet's primary holding directly.
func (b *Backend) FundHot(walletID uuid.UUID, amount decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hot[walletID] = b.hot[walletID].Add(amount)
}

// HotBalance returns a wallet's primary holding.
func (b *Backend) HotBalance(walletID uuid.UUID) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hot[walletID]
}

// AddressBalance returns the unswept balance at an address.
func (b *Backend) AddressBalance(address string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.addresses[address]; ok {
		return a.balance
	}
	return decimal.Zero
}

// Confirm sets the confirmation count of a transaction.
func (b *Backend) Confirm(txID string, confirmations int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tx, ok := b.txs[txID]; ok {
		tx.confirmations = confirmations
	}
}

// WebhookRegistrations returns how many distinct registrations a wallet has.
// Idempotent Set/Reset means this is always 0 or 1.
func (b *Backend) WebhookRegistrations(walletID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.webhooks[walletID]; ok {
		return 1
	}
	return 0
}

// DepositPayload builds the provider payload the backend would deliver for a
// deposit landing at an address.
func (b *Backend) DepositPayload(txID, address string, amount decimal.Decimal, confirmations int64) []byte {
	payload, _ := json.Marshal(webhookPayload{
		TxID:          txID,
		Address:       address,
		Amount:        amount.String(),
		Confirmations: confirmations,
	})
	return payload
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%06d", prefix, b.seq)
}

// deriveAddress mints a fresh, never-reused address bound to the wallet and
// returns it with its derivation index.
func (b *Backend) deriveAddress(walletID uuid.UUID) (string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	idx := b.seq
	addr := fmt.Sprintf("sim1%012d", idx)
	b.addresses[addr] = &backendAddress{walletID: walletID, balance: decimal.Zero}
	return addr, idx
}

// send debits the wallet's primary holding and records an outbound
// transaction. The fee actually charged is baseFee scaled by the jitter
// function, so it never exceeds a conservative estimate built on baseFee.
func (b *Backend) send(walletID uuid.UUID, to string, amount decimal.Decimal) (*backendTx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendFailures > 0 {
		b.sendFailures--
		return nil, errSendRejected
	}

	fee := b.baseFee.Mul(b.feeJitter())
	total := amount.Add(fee)
	if b.hot[walletID].LessThan(total) {
		return nil, errInsufficientFunds
	}
	b.hot[walletID] = b.hot[walletID].Sub(total)

	tx := &backendTx{
		id:       b.nextID("tx"),
		walletID: walletID,
		address:  to,
		amount:   amount,
		fee:      fee,
		outbound: true,
	}
	b.txs[tx.id] = tx
	return tx, nil
}

// transaction returns a copy of the stored transaction state.
func (b *Backend) transaction(txID string) (backendTx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, ok := b.txs[txID]
	if !ok {
		return backendTx{}, errUnknownTx
	}
	return *tx, nil
}

// ownsAddress reports whether the address belongs to the wallet.
func (b *Backend) ownsAddress(walletID uuid.UUID, address string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.addresses[address]
	return ok && a.walletID == walletID
}

// register stores the wallet's webhook registration, replacing any previous
// one so repeated registration never duplicates deliveries.
func (b *Backend) register(walletID uuid.UUID, callbackURL string, minConfirmations int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.webhooks[walletID] = webhookRegistration{callbackURL: callbackURL, minConfirmations: minConfirmations}
}

// sweep moves an address's balance minus the charged fee into the wallet's
// primary holding. Sweeping an already-empty or already-swept address is a
// no-op. The charged fee must leave a positive remainder.
func (b *Backend) sweep(walletID uuid.UUID, address string) (swept decimal.Decimal, noop bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.addresses[address]
	if !ok || a.walletID != walletID {
		return decimal.Zero, false, errUnknownAddress
	}
	if a.swept || a.balance.IsZero() {
		return decimal.Zero, true, nil
	}

	fee := b.baseFee.Mul(b.feeJitter())
	if a.balance.LessThanOrEqual(fee) {
		return decimal.Zero, false, errInsufficientFunds
	}

	moved := a.balance.Sub(fee)
	a.balance = decimal.Zero
	a.swept = true
	b.hot[walletID] = b.hot[walletID].Add(moved)
	return moved, false, nil
}
