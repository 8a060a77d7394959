// Package money provides an exact decimal amount tagged with a currency code.
// All arithmetic is performed on arbitrary-precision decimals; binary floating
// point is never involved in storing or comparing amounts.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxPrecision is the maximum number of significant digits an amount may carry.
	MaxPrecision = 36
	// MaxScale is the maximum number of digits after the decimal point.
	MaxScale = 18
)

var (
	ErrNotNumeric        = errors.New("money: not a numeric string")
	ErrPrecisionExceeded = errors.New("money: precision exceeded")
	ErrScaleExceeded     = errors.New("money: scale exceeded")
	ErrCurrencyMismatch  = errors.New("money: currency mismatch")
	ErrDivisionByZero    = errors.New("money: division by zero")
)

// Money is an immutable amount of a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Parse converts a decimal string into Money, validating precision and scale.
func Parse(currency, s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return New(currency, d)
}

// New wraps a decimal into Money, validating precision and scale.
func New(currency string, d decimal.Decimal) (Money, error) {
	if err := checkBounds(d); err != nil {
		return Money{}, err
	}
	return Money{amount: d, currency: currency}, nil
}

// MustParse is Parse that panics on error. For static values and tests only.
func MustParse(currency, s string) Money {
	m, err := Parse(currency, s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount of the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

// Amount returns the underlying decimal value.
func (m Money) Amount() decimal.Decimal { return m.amount }

// String renders the amount followed by its currency code, e.g. "0.0015 BTC".
func (m Money) String() string {
	return m.amount.String() + " " + m.currency
}

// Add returns m + o. Both operands must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return New(m.currency, m.amount.Add(o.amount))
}

// Sub returns m - o. Both operands must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return New(m.currency, m.amount.Sub(o.amount))
}

// Mul returns m scaled by the given factor.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	return New(m.currency, m.amount.Mul(factor))
}

// Div returns m divided by the given divisor, rounded half-up to MaxScale.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return New(m.currency, m.amount.DivRound(divisor, MaxScale))
}

// Percent applies a percentage (e.g. 1.5 for 1.5%) and rounds half-up to the
// given scale. Used for fee application, where half-up is the single rounding
// mode in the system.
func (m Money) Percent(pct decimal.Decimal, scale int32) (Money, error) {
	v := m.amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(scale)
	return New(m.currency, v)
}

// Round rounds half-up to the given number of fraction digits.
func (m Money) Round(scale int32) Money {
	return Money{amount: m.amount.Round(scale), currency: m.currency}
}

// Cmp returns -1, 0 or 1 comparing m against o.
func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.amount.Cmp(o.amount), nil
}

// LessThan reports whether m < o.
func (m Money) LessThan(o Money) (bool, error) {
	c, err := m.Cmp(o)
	return c < 0, err
}

// GreaterThan reports whether m > o.
func (m Money) GreaterThan(o Money) (bool, error) {
	c, err := m.Cmp(o)
	return c > 0, err
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Equal reports whether both currency and amount match.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes the amount as a string to keep it exact on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON decodes and re-validates precision and scale.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Currency, raw.Amount)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// checkBounds enforces MaxPrecision significant digits and MaxScale fraction digits.
func checkBounds(d decimal.Decimal) error {
	var scale int32
	if d.Exponent() < 0 {
		scale = -d.Exponent()
	}
	if scale > MaxScale {
		return fmt.Errorf("%w: %d fraction digits (max %d)", ErrScaleExceeded, scale, MaxScale)
	}

	coeff := d.Coefficient().String()
	coeff = strings.TrimPrefix(coeff, "-")
	digits := int32(len(coeff))
	if d.Exponent() > 0 {
		digits += d.Exponent()
	}
	if digits > MaxPrecision {
		return fmt.Errorf("%w: %d significant digits (max %d)", ErrPrecisionExceeded, digits, MaxPrecision)
	}
	return nil
}
