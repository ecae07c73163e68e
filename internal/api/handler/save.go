package handler

import (
	"encoding/json"
	"net/http"

	"github.com/karstgames/savepoint/internal/api/middleware"
	"github.com/karstgames/savepoint/internal/api/request"
	"github.com/karstgames/savepoint/internal/api/response"
	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/services/account"
)

// SaveHandler handles the upgrade purchase and save slot access
type SaveHandler struct {
	accounts *account.Service
}

// NewSaveHandler creates a new save handler
func NewSaveHandler(accounts *account.Service) *SaveHandler {
	return &SaveHandler{
		accounts: accounts,
	}
}

// Upgrade handles POST /utils/upgrade
func (h *SaveHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustGetClaims(r.Context())

	var req request.UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	res, err := h.accounts.Upgrade(r.Context(), claims.AccountID, account.Payment{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Address:    req.Address,
		CardNumber: req.CardNumber,
		CVC:        req.CVC,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromResult(res))
}

// Save handles POST /utils/save
func (h *SaveHandler) Save(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustGetClaims(r.Context())

	var req request.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if len(req.Data) == 0 {
		WriteError(w, NewInvalidRequestError("data is required"))
		return
	}

	err := h.accounts.Save(r.Context(), claims.AccountID, model.SaveSlot(req.Slot), model.SaveBlob(req.Data))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Load handles GET /utils/load
func (h *SaveHandler) Load(w http.ResponseWriter, r *http.Request) {
	claims := middleware.MustGetClaims(r.Context())

	data, err := h.accounts.Load(r.Context(), claims.AccountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SaveDataFromModel(data))
}
