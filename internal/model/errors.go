package model

import "errors"

// Common errors used across the application
var (
	// Authentication errors. Unknown username and wrong password are
	// deliberately collapsed into ErrInvalidCredentials so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBanned      = errors.New("account banned")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNotExpiring   = errors.New("token is not close enough to expiry to refresh")

	// Authorization errors
	ErrNotPermitted = errors.New("insufficient role for this operation")
	ErrNotUpgraded  = errors.New("account is not upgraded")

	// Validation errors
	ErrCredentialFormat = errors.New("username or password does not meet format requirements")
	ErrPaymentFormat    = errors.New("payment details do not meet format requirements")
	ErrInvalidSlot      = errors.New("invalid save slot")
	ErrInvalidPage      = errors.New("invalid page number")
	ErrPageNotFound     = errors.New("page does not exist")

	// Conflict errors
	ErrUsernameTaken   = errors.New("username already taken")
	ErrAlreadyUpgraded = errors.New("account already upgraded")
	ErrAlreadyBanned   = errors.New("account already banned")
	ErrNotBanned       = errors.New("account is not banned")

	// Storage errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrSaveDataNotFound = errors.New("save data not found")
)

// StoreError wraps a storage backend failure with an operator-facing
// diagnostic code. The code is logged but never exposed to callers beyond a
// tagged value; the underlying error stays internal.
type StoreError struct {
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code == "" {
		return "store error: " + e.Err.Error()
	}
	return "store error [" + e.Code + "]: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError tags err with a backend diagnostic code
func NewStoreError(code string, err error) *StoreError {
	return &StoreError{Code: code, Err: err}
}
