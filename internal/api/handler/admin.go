package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/karstgames/savepoint/internal/api/request"
	"github.com/karstgames/savepoint/internal/api/response"
	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/services/account"
)

// AdminHandler handles admin account management endpoints
type AdminHandler struct {
	accounts *account.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accounts *account.Service) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
	}
}

// CreateAdmin handles POST /admin/create_admin
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
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

	acct, err := h.accounts.RegisterAdmin(r.Context(), account.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AccountFromModel(acct))
}

// Users handles GET /admin/users?page=N
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	pageParam := r.URL.Query().Get("page")
	if pageParam == "" {
		pageParam = "1"
	}
	page, err := strconv.Atoi(pageParam)
	if err != nil {
		WriteError(w, model.ErrInvalidPage)
		return
	}

	listing, err := h.accounts.List(r.Context(), page)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountPageFromService(listing))
}

// User handles GET /admin/user?identifier=
func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	ident, err := identifierFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.accounts.Get(r.Context(), ident)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// Delete handles DELETE /admin/delete?identifier=
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, err := identifierFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.accounts.Delete(r.Context(), ident)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// Ban handles POST /admin/ban
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	ident, err := identifierFromBody(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.accounts.Ban(r.Context(), ident)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// Unban handles POST /admin/unban
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	ident, err := identifierFromBody(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.accounts.Unban(r.Context(), ident)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

func identifierFromQuery(r *http.Request) (account.Identifier, error) {
	raw := r.URL.Query().Get("identifier")
	if raw == "" {
		return account.Identifier{}, NewInvalidRequestError("identifier is required")
	}
	return account.ParseIdentifier(raw)
}

func identifierFromBody(r *http.Request) (account.Identifier, error) {
	var req request.IdentifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return account.Identifier{}, NewInvalidRequestError("invalid request body")
	}
	if req.Identifier == "" {
		return account.Identifier{}, NewInvalidRequestError("identifier is required")
	}
	return account.ParseIdentifier(req.Identifier)
}
