package domain

import (
	"time"

	"walletbridge/pkg/money"

	"github.com/google/uuid"
)

// RecordKind is the type of pending financial record.
type RecordKind string

const (
	RecordKindDeposit    RecordKind = "DEPOSIT"
	RecordKindWithdrawal RecordKind = "WITHDRAWAL"
)

// RecordStatus is the lifecycle state of a pending financial record.
// Transitions are monotonic: pending -> completed or pending -> canceled,
// and terminal states are absorbing.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "PENDING"
	RecordStatusCompleted RecordStatus = "COMPLETED"
	RecordStatusCanceled  RecordStatus = "CANCELED"
)

// PendingRecord is a deposit or withdrawal awaiting confirmation. While
// pending it contributes exactly zero to available balance; only the
// completed transition applies the credit or debit, exactly once.
type PendingRecord struct {
	ID       uuid.UUID  `json:"id"`
	Kind     RecordKind `json:"kind"`
	WalletID uuid.UUID  `json:"wallet_id"`
	CoinID   string     `json:"coin_id"`

	// Address matches inbound webhooks for deposits; TxID matches
	// backend confirmations for withdrawals (set at send time).
	Address string `json:"address,omitempty"`
	TxID    string `json:"tx_id,omitempty"`

	Amount        money.Money  `json:"amount"`
	Status        RecordStatus `json:"status"`
	ExpiresAt     time.Time    `json:"expires_at"`
	TransactionID *uuid.UUID   `json:"transaction_id,omitempty"`
	FlagReason    *string      `json:"flag_reason,omitempty"` // diagnostic, set after exhausted retries
	CreatedAt     time.Time    `json:"created_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// IsTerminal returns true once the record is completed or canceled.
func (r *PendingRecord) IsTerminal() bool {
	return r.Status == RecordStatusCompleted || r.Status == RecordStatusCanceled
}

// IsOverdue reports whether the expiry deadline has passed while the record
// is still pending.
func (r *PendingRecord) IsOverdue(now time.Time) bool {
	return r.Status == RecordStatusPending && now.After(r.ExpiresAt)
}

// LockKey returns the mutual-exclusion key scoped to this record's identity.
func (r *PendingRecord) LockKey() string {
	return BuildRecordLockKey(r.ID)
}

// BuildRecordLockKey constructs the per-record lease key.
func BuildRecordLockKey(id uuid.UUID) string {
	return "record:" + id.String()
}
