package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/karstgames/savepoint/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountBanned      = "ACCOUNT_BANNED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotUpgraded        = "NOT_UPGRADED"
	CodeTokenNotExpiring   = "TOKEN_NOT_EXPIRING"
	CodeCredentialFormat   = "CREDENTIAL_FORMAT"
	CodePaymentFormat      = "PAYMENT_FORMAT"
	CodeInvalidSlot        = "INVALID_SLOT"
	CodeInvalidPage        = "INVALID_PAGE"
	CodePageNotFound       = "PAGE_NOT_FOUND"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeAlreadyUpgraded    = "ALREADY_UPGRADED"
	CodeAlreadyBanned      = "ALREADY_BANNED"
	CodeNotBanned          = "NOT_BANNED"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeSaveDataNotFound   = "SAVE_DATA_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mapping is the full translation table from model sentinel errors to wire
// responses. Every sentinel the services can return has exactly one row;
// anything unmapped is treated as internal and its details withheld.
var mapping = []struct {
	sentinel error
	status   int
	apiError APIError
}{
	{model.ErrInvalidCredentials, http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}},
	{model.ErrAccountBanned, http.StatusForbidden, APIError{CodeAccountBanned, "Account is banned"}},
	{model.ErrInvalidToken, http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}},
	{model.ErrTokenNotExpiring, http.StatusConflict, APIError{CodeTokenNotExpiring, "Token is not close enough to expiry to refresh"}},
	{model.ErrNotPermitted, http.StatusForbidden, APIError{CodeForbidden, "Insufficient permissions"}},
	{model.ErrNotUpgraded, http.StatusForbidden, APIError{CodeNotUpgraded, "Account is not upgraded"}},
	{model.ErrCredentialFormat, http.StatusBadRequest, APIError{CodeCredentialFormat, "Username or password does not meet format requirements"}},
	{model.ErrPaymentFormat, http.StatusBadRequest, APIError{CodePaymentFormat, "Payment details are malformed"}},
	{model.ErrInvalidSlot, http.StatusBadRequest, APIError{CodeInvalidSlot, "Save slot must be 1, 2, or 3"}},
	{model.ErrInvalidPage, http.StatusBadRequest, APIError{CodeInvalidPage, "Page must be a positive integer"}},
	{model.ErrPageNotFound, http.StatusNotFound, APIError{CodePageNotFound, "Page does not exist"}},
	{model.ErrUsernameTaken, http.StatusConflict, APIError{CodeUsernameTaken, "Username already taken"}},
	{model.ErrAlreadyUpgraded, http.StatusConflict, APIError{CodeAlreadyUpgraded, "Account is already upgraded"}},
	{model.ErrAlreadyBanned, http.StatusConflict, APIError{CodeAlreadyBanned, "Account is already banned"}},
	{model.ErrNotBanned, http.StatusConflict, APIError{CodeNotBanned, "Account is not banned"}},
	{model.ErrAccountNotFound, http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}},
	{model.ErrSaveDataNotFound, http.StatusNotFound, APIError{CodeSaveDataNotFound, "Save data not found"}},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	for _, m := range mapping {
		if errors.Is(err, m.sentinel) {
			return &httpError{m.status, m.apiError}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Insufficient permissions"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
