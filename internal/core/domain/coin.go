package domain

import (
	"strings"
	"time"
)

// Coin is immutable reference data describing one supported currency.
// Instances are created at adapter registration time and never mutated
// by request handling.
type Coin struct {
	Identifier        string `json:"identifier"` // unique, stable (e.g. "btc")
	Name              string `json:"name"`
	BaseUnit          string `json:"base_unit"` // e.g. "satoshi", "wei"
	Precision         int32  `json:"precision"` // fraction digits of the coin itself
	CurrencyPrecision int32  `json:"currency_precision"`
	Symbol            string `json:"symbol"`
	SymbolFirst       bool   `json:"symbol_first"`
	Color             string `json:"color"`
	Icon              string `json:"icon"`

	// MinConfirmations is the threshold at which a receive becomes final.
	MinConfirmations int64 `json:"min_confirmations"`
	// DepositExpiry bounds how long a pending deposit stays open.
	DepositExpiry time.Duration `json:"deposit_expiry"`
}

// CurrencyCode returns the code used to tag Money amounts of this coin.
func (c Coin) CurrencyCode() string {
	return strings.ToUpper(c.Identifier)
}
