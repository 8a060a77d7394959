// Package dto defines the HTTP request and response shapes. Amounts travel as
// decimal strings and are re-validated at the boundary; binary floating point
// never touches a balance.
package dto

import (
	"time"

	"walletbridge/internal/core/domain"
	"walletbridge/internal/core/ports"
	"walletbridge/pkg/money"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for wallet provisioning.
type CreateWalletRequest struct {
	OwnerID    string `json:"owner_id" binding:"required,uuid"`
	CoinID     string `json:"coin_id" binding:"required,min=1,max=20"`
	Passphrase string `json:"passphrase" binding:"required,min=8,max=128"`
}

// CreateAddressRequest is the request body for address derivation.
type CreateAddressRequest struct {
	Passphrase string `json:"passphrase" binding:"required,min=8,max=128"`
	Label      string `json:"label" binding:"max=100"`
}

// SendRequest is the request body for an outbound transfer.
type SendRequest struct {
	Address    string `json:"address" binding:"required,min=1,max=128"`
	Amount     string `json:"amount" binding:"required"`
	Passphrase string `json:"passphrase" binding:"required,min=8,max=128"`
}

// DepositIntentRequest is the request body for opening a deposit intent.
type DepositIntentRequest struct {
	AddressID string `json:"address_id" binding:"required,uuid"`
	Amount    string `json:"amount" binding:"required"`
}

// SweepRequest is the request body for an operator-triggered consolidation.
type SweepRequest struct {
	Passphrase string `json:"passphrase" binding:"required,min=8,max=128"`
}

// MoneyResponse renders an amount as an exact decimal string.
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// WalletResponse is the public view of a wallet. The sealed credential is
// deliberately absent.
type WalletResponse struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	CoinID    string        `json:"coin_id"`
	Balance   MoneyResponse `json:"balance"`
	CreatedAt time.Time     `json:"created_at"`
}

// AddressResponse is the public view of a receiving address.
type AddressResponse struct {
	ID        string    `json:"id"`
	WalletID  string    `json:"wallet_id"`
	CoinID    string    `json:"coin_id"`
	Address   string    `json:"address"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordResponse is the public view of a pending financial record.
type RecordResponse struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	WalletID    string        `json:"wallet_id"`
	CoinID      string        `json:"coin_id"`
	Address     string        `json:"address,omitempty"`
	TxID        string        `json:"tx_id,omitempty"`
	Amount      MoneyResponse `json:"amount"`
	Status      string        `json:"status"`
	ExpiresAt   time.Time     `json:"expires_at"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// CoinResponse is the public view of a configured coin.
type CoinResponse struct {
	Identifier       string `json:"identifier"`
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	Precision        int32  `json:"precision"`
	Color            string `json:"color,omitempty"`
	Icon             string `json:"icon,omitempty"`
	MinConfirmations int64  `json:"min_confirmations"`
	MinTransferable  string `json:"min_transferable"`
	MaxTransferable  string `json:"max_transferable"`
}

// PriceResponse carries a coin's market price.
type PriceResponse struct {
	CoinID string          `json:"coin_id"`
	Price  decimal.Decimal `json:"price"`
}

// PriceChangeResponse carries a coin's 24h price change percentage.
type PriceChangeResponse struct {
	CoinID string          `json:"coin_id"`
	Change decimal.Decimal `json:"change"`
}

// ChartResponse carries market chart points.
type ChartResponse struct {
	CoinID   string              `json:"coin_id"`
	Interval string              `json:"interval"`
	Points   []ports.MarketPoint `json:"points"`
}

// ToMoneyResponse converts a money amount.
func ToMoneyResponse(m money.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount().String(), Currency: m.Currency()}
}

// ToWalletResponse converts a domain wallet.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		OwnerID:   w.OwnerID.String(),
		CoinID:    w.CoinID,
		Balance:   ToMoneyResponse(w.Balance),
		CreatedAt: w.CreatedAt,
	}
}

// ToAddressResponse converts a domain address.
func ToAddressResponse(a *domain.Address) AddressResponse {
	return AddressResponse{
		ID:        a.ID.String(),
		WalletID:  a.WalletID.String(),
		CoinID:    a.CoinID,
		Address:   a.Address,
		Label:     a.Label,
		CreatedAt: a.CreatedAt,
	}
}

// ToRecordResponse converts a domain pending record.
func ToRecordResponse(r *domain.PendingRecord) RecordResponse {
	return RecordResponse{
		ID:          r.ID.String(),
		Kind:        string(r.Kind),
		WalletID:    r.WalletID.String(),
		CoinID:      r.CoinID,
		Address:     r.Address,
		TxID:        r.TxID,
		Amount:      ToMoneyResponse(r.Amount),
		Status:      string(r.Status),
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
	}
}

// ToCoinResponse converts a coin identity plus its adapter's transfer bounds.
func ToCoinResponse(coin domain.Coin, min, max money.Money) CoinResponse {
	return CoinResponse{
		Identifier:       coin.Identifier,
		Name:             coin.Name,
		Symbol:           coin.Symbol,
		Precision:        coin.Precision,
		Color:            coin.Color,
		Icon:             coin.Icon,
		MinConfirmations: coin.MinConfirmations,
		MinTransferable:  min.Amount().String(),
		MaxTransferable:  max.Amount().String(),
	}
}
