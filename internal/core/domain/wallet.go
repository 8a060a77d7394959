package domain

import (
	"time"

	"walletbridge/pkg/money"

	"github.com/google/uuid"
)

// Wallet binds an owning entity to one coin's backend credential material.
// One wallet per owner+coin combination. The sealed credential is opaque to
// everything except the adapter that produced it, and must never be logged
// or transmitted outside adapter boundaries.
type Wallet struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       uuid.UUID   `json:"owner_id"`
	CoinID        string      `json:"coin_id"`
	CredentialEnc string      `json:"-"` // sealed adapter-specific material
	Balance       money.Money `json:"balance"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Address is one receiving address derived for a wallet. Many addresses per
// wallet (deposit isolation); the address string is unique per coin and the
// row is immutable once created.
type Address struct {
	ID             uuid.UUID `json:"id"`
	WalletID       uuid.UUID `json:"wallet_id"`
	CoinID         string    `json:"coin_id"`
	Address        string    `json:"address"`
	Label          string    `json:"label,omitempty"`
	DerivationPath string    `json:"derivation_path,omitempty"`
	Swept          bool      `json:"swept"` // funds consolidated into the primary holding
	CreatedAt      time.Time `json:"created_at"`
}
