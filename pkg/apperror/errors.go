package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string            `json:"error_code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"` // Field-level validation detail
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic malformed-input error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// FieldValidation returns a validation error carrying per-field detail.
func FieldValidation(fields map[string]string) *AppError {
	e := New("VAL_002", "Validation failed", http.StatusUnprocessableEntity)
	e.Fields = fields
	return e
}

// ---- Coin resolution (COIN) ----

func ErrUnknownCoin(identifier string) *AppError {
	return New("COIN_001", fmt.Sprintf("Unknown coin %q", identifier), http.StatusNotFound)
}

// ---- Adapter backends (ADP) ----

// ErrAdapter wraps a terminal backend failure with the coin and operation
// that produced it. Transient failures must be retried inside the adapter
// and never surface through this constructor.
func ErrAdapter(coin, op string, err error) *AppError {
	return Wrap("ADP_001", fmt.Sprintf("Backend failure for %s during %s", coin, op), http.StatusBadGateway, err)
}

func ErrAdapterTimeout(coin, op string, err error) *AppError {
	return Wrap("ADP_002", fmt.Sprintf("Backend timeout for %s during %s", coin, op), http.StatusGatewayTimeout, err)
}

// ---- Transfer domain rules (FUND) ----

func ErrInsufficientFunds() *AppError {
	return New("FUND_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrBelowMinimum(min string) *AppError {
	return New("FUND_002", fmt.Sprintf("Amount below minimum transferable %s", min), http.StatusUnprocessableEntity)
}

func ErrAboveMaximum(max string) *AppError {
	return New("FUND_003", fmt.Sprintf("Amount above maximum transferable %s", max), http.StatusUnprocessableEntity)
}

// ---- Resources (RES) ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyExists(entity string) *AppError {
	return New("RES_002", fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

// ---- Locking (LOCK) ----

// ErrLockContention signals a record is being processed elsewhere. Callers
// must back off and retry; this is never a permanent failure.
func ErrLockContention(key string) *AppError {
	return New("LOCK_001", fmt.Sprintf("Record %s is being processed, retry later", key), http.StatusServiceUnavailable)
}

// IsLockContention reports whether err is a LOCK_001 error.
func IsLockContention(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "LOCK_001"
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

func ErrCredentialFailure(err error) *AppError {
	return Wrap("SYS_003", "Credential sealing failure", http.StatusInternalServerError, err)
}

// IsTerminal reports whether err carries a definitive classification. Adapter
// retry loops stop on terminal errors and keep retrying everything else.
func IsTerminal(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
