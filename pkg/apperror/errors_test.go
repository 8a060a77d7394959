package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("COIN_001", "Unknown coin", http.StatusNotFound)
	assert.Equal(t, "[COIN_001] Unknown coin", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] Internal server error: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	e := ErrAdapter("btc", "send", inner)
	assert.ErrorIs(t, e, inner)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", Validation("bad input"), "VAL_001", http.StatusBadRequest},
		{"unknown coin", ErrUnknownCoin("doge"), "COIN_001", http.StatusNotFound},
		{"adapter", ErrAdapter("eth", "send", errors.New("x")), "ADP_001", http.StatusBadGateway},
		{"adapter timeout", ErrAdapterTimeout("eth", "send", errors.New("x")), "ADP_002", http.StatusGatewayTimeout},
		{"insufficient funds", ErrInsufficientFunds(), "FUND_001", http.StatusPaymentRequired},
		{"below minimum", ErrBelowMinimum("0.0001 BTC"), "FUND_002", http.StatusUnprocessableEntity},
		{"above maximum", ErrAboveMaximum("10 BTC"), "FUND_003", http.StatusUnprocessableEntity},
		{"not found", ErrNotFound("wallet"), "RES_001", http.StatusNotFound},
		{"lock contention", ErrLockContention("record:1"), "LOCK_001", http.StatusServiceUnavailable},
		{"internal", InternalError(errors.New("x")), "SYS_001", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

func TestFieldValidation(t *testing.T) {
	e := FieldValidation(map[string]string{"amount": "must be positive"})
	assert.Equal(t, "VAL_002", e.Code)
	assert.Equal(t, "must be positive", e.Fields["amount"])
}

func TestIsLockContention(t *testing.T) {
	assert.True(t, IsLockContention(ErrLockContention("k")))
	assert.True(t, IsLockContention(fmt.Errorf("wrapped: %w", ErrLockContention("k"))))
	assert.False(t, IsLockContention(ErrInsufficientFunds()))
	assert.False(t, IsLockContention(errors.New("plain")))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(ErrAdapter("btc", "send", errors.New("rejected"))))
	assert.False(t, IsTerminal(errors.New("connection reset")), "raw network errors are transient")
}
