package handler

import (
	"encoding/json"
	"net/http"

	"github.com/karstgames/savepoint/internal/api/middleware"
	"github.com/karstgames/savepoint/internal/api/request"
	"github.com/karstgames/savepoint/internal/api/response"
	"github.com/karstgames/savepoint/internal/services/account"
	"github.com/karstgames/savepoint/internal/services/token"
)

// AuthHandler handles registration, login, and token upkeep
type AuthHandler struct {
	accounts *account.Service
	tokens   *token.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *account.Service, tokens *token.Service) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
	}
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	res, err := h.accounts.Register(r.Context(), account.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromResult(res))
}

// Login handles POST /auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	res, err := h.accounts.Authenticate(r.Context(), account.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromResult(res))
}

// Refresh handles GET /utils/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustGetClaims(r.Context())

	refreshed, err := h.tokens.Refresh(claims)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TokenResponse{Token: refreshed})
}

// ChangePassword handles POST /utils/update_password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustGetClaims(r.Context())

	var req request.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.CurrentPassword == "" {
		WriteError(w, NewInvalidRequestError("current_password is required"))
		return
	}
	if req.NewPassword == "" {
		WriteError(w, NewInvalidRequestError("new_password is required"))
		return
	}

	err := h.accounts.ChangePassword(r.Context(), claims.AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
