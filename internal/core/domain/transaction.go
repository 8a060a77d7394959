package domain

import (
	"encoding/json"
	"time"

	"walletbridge/pkg/money"

	"github.com/google/uuid"
)

// TransactionDirection distinguishes inbound from outbound movements.
type TransactionDirection string

const (
	DirectionReceive TransactionDirection = "RECEIVE"
	DirectionSend    TransactionDirection = "SEND"
)

// TransactionStatus is the backend-reported state of a canonical transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is the canonical, adapter-independent representation of one
// backend event. The pair (coin identifier, backend transaction id) uniquely
// identifies a row: a second webhook delivery for the same pair must be a
// no-op on financial state, though it may still bump the confirmation count.
type Transaction struct {
	ID            uuid.UUID            `json:"id"`
	CoinID        string               `json:"coin_id"`
	TxID          string               `json:"tx_id"` // assigned by the adapter's backend
	WalletID      uuid.UUID            `json:"wallet_id"`
	Direction     TransactionDirection `json:"direction"`
	Address       string               `json:"address"` // counterparty or deposit address
	Amount        money.Money          `json:"amount"`
	Fee           *money.Money         `json:"fee,omitempty"`
	Confirmations int64                `json:"confirmations"`
	BlockHash     string               `json:"block_hash,omitempty"`
	RawPayload    json.RawMessage      `json:"raw_payload,omitempty"` // provider payload as received; internal wire only, DTOs never expose it
	Status        TransactionStatus    `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Key returns the idempotency key identifying this transaction across
// redeliveries.
func (t *Transaction) Key() string {
	return BuildTransactionKey(t.CoinID, t.TxID)
}

// BuildTransactionKey constructs the standard (coin, backend tx id) key.
func BuildTransactionKey(coinID, txID string) string {
	return coinID + ":" + txID
}

// IsConfirmedAt reports whether the transaction has reached the given
// confirmation threshold.
func (t *Transaction) IsConfirmedAt(minConfirmations int64) bool {
	return t.Confirmations >= minConfirmations
}
