package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event emitted after a committed state transition and
// consumed by the presentation-layer broadcasters. Channels name the pub/sub
// destinations; delivery mechanics are an external collaborator.
type Event interface {
	Name() string
	Channels() []string
}

// TransactionRecordSaved fires whenever a pending financial record is created
// or transitions state.
type TransactionRecordSaved struct {
	RecordID  uuid.UUID `json:"record_id"`
	OwnerID   uuid.UUID `json:"-"`
	Address   string    `json:"-"`
	Confirmed bool      `json:"confirmed"`
}

func (e TransactionRecordSaved) Name() string { return "transaction-record.saved" }

func (e TransactionRecordSaved) Channels() []string {
	chans := []string{"private-user." + e.OwnerID.String()}
	if e.Address != "" {
		chans = append(chans, "address."+e.Address)
	}
	return chans
}

// WalletAccountSaved fires when a wallet account is created or updated.
type WalletAccountSaved struct {
	AccountID uuid.UUID `json:"account_id"`
	OwnerID   uuid.UUID `json:"-"`
}

func (e WalletAccountSaved) Name() string { return "wallet-account.saved" }

func (e WalletAccountSaved) Channels() []string {
	return []string{"private-user." + e.OwnerID.String()}
}

// ExchangeTradeSaved fires when an exchange trade reaches a new status.
type ExchangeTradeSaved struct {
	TradeID     uuid.UUID  `json:"trade_id"`
	OwnerID     uuid.UUID  `json:"-"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (e ExchangeTradeSaved) Name() string { return "exchange-trade.saved" }

func (e ExchangeTradeSaved) Channels() []string {
	return []string{"private-user." + e.OwnerID.String()}
}
