package money

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"integer", "42"},
		{"fractional", "0.00000001"},
		{"max scale", "0.000000000000000001"},
		{"large", "123456789012345678.123456789012345678"},
		{"negative", "-5.5"},
		{"zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse("BTC", tt.input)
			require.NoError(t, err)

			back, err := Parse("BTC", m.Amount().String())
			require.NoError(t, err)
			assert.True(t, m.Equal(back), "parse should round-trip: %s", tt.input)
		})
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not numeric", "abc", ErrNotNumeric},
		{"empty", "", ErrNotNumeric},
		{"two dots", "1.2.3", ErrNotNumeric},
		{"scale exceeded", "0.0000000000000000001", ErrScaleExceeded},
		{"precision exceeded", strings.Repeat("9", 37), ErrPrecisionExceeded},
		{"precision exceeded fractional", strings.Repeat("9", 19) + "." + strings.Repeat("9", 18), ErrPrecisionExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("BTC", tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestArithmetic_CurrencyMismatch(t *testing.T) {
	btc := MustParse("BTC", "1")
	eth := MustParse("ETH", "1")

	_, err := btc.Add(eth)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = btc.Sub(eth)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = btc.Cmp(eth)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestArithmetic_Exact(t *testing.T) {
	a := MustParse("BTC", "0.1")
	b := MustParse("BTC", "0.2")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustParse("BTC", "0.3")), "0.1 + 0.2 must be exactly 0.3")

	diff, err := sum.Sub(a)
	require.NoError(t, err)
	assert.True(t, diff.Equal(b))
}

func TestPercent_HalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		pct    string
		scale  int32
		want   string
	}{
		{"rounds up at half", "100.05", "1", 2, "1.00"},
		{"fee on small amount", "0.00000003", "50", 8, "0.00000002"}, // 0.000000015 -> half-up
		{"exact", "200", "2.5", 2, "5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustParse("BTC", tt.amount)
			got, err := m.Percent(decimal.RequireFromString(tt.pct), tt.scale)
			require.NoError(t, err)
			assert.True(t, got.Equal(MustParse("BTC", tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestDiv(t *testing.T) {
	m := MustParse("ETH", "1")

	_, err := m.Div(decimal.Zero)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	half, err := m.Div(decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, half.Equal(MustParse("ETH", "0.5")))
}

func TestComparisons(t *testing.T) {
	small := MustParse("BTC", "0.0001")
	big := MustParse("BTC", "1")

	lt, err := small.LessThan(big)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, Zero("BTC").IsZero())
	assert.True(t, MustParse("BTC", "-1").IsNegative())
	assert.True(t, big.IsPositive())
}

func TestJSON_RoundTrip(t *testing.T) {
	m := MustParse("ETH", "12.000000000000000001")

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}

func TestJSON_RejectsOutOfBounds(t *testing.T) {
	var m Money
	err := json.Unmarshal([]byte(`{"amount":"0.0000000000000000001","currency":"BTC"}`), &m)
	assert.ErrorIs(t, err, ErrScaleExceeded)
}
