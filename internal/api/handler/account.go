// internal/api/handler/account.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/service"
	"ledger-bank/internal/util"
)

// AccountHandler handles HTTP requests related to account management.
type AccountHandler struct {
	responder
	service service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateAccountRequest represents the request body for opening an account.
type CreateAccountRequest struct {
	AccountType string      `json:"account_type"`
	Name        string      `json:"name"`
	UserID      *FlexString `json:"user_id"`
	Balance     *FlexString `json:"balance"`
}

// UpdateAccountRequest represents the request body for updating an account.
// Balance is only present to reject callers trying to set it.
type UpdateAccountRequest struct {
	AccountType *string          `json:"account_type"`
	Name        *string          `json:"name"`
	UserID      *FlexString      `json:"user_id"`
	Balance     *json.RawMessage `json:"balance"`
}

// CreateAccount opens an account.
// POST /api/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	userID, err := parseOptionalID("user_id", req.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	balance, err := parseBalance(req.Balance)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), domain.NewAccount{
		AccountType:    req.AccountType,
		Name:           req.Name,
		UserID:         userID,
		OpeningBalance: balance,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, account)
}

// ListAccounts lists accounts, optionally filtered by owner name or user id.
// GET /api/accounts?name=&user_id=
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := domain.AccountFilter{OwnerName: r.URL.Query().Get("name")}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := parseID("user_id", raw)
		if err != nil {
			h.respondWithError(w, err)
			return
		}
		filter.UserID = &userID
	}

	accounts, err := h.service.ListAccounts(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}

	h.respondWithJSON(w, http.StatusOK, accounts)
}

// GetAccount returns one account.
// GET /api/accounts/{accountID}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, account)
}

// UpdateAccount changes the descriptive fields of an account.
// PUT /api/accounts/{accountID}
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.Balance != nil {
		h.respondWithError(w, fmt.Errorf("%w: balance can only change through transactions", util.ErrInvalidInput))
		return
	}

	userID, err := parseOptionalID("user_id", req.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), accountID, domain.AccountUpdate{
		AccountType: req.AccountType,
		Name:        req.Name,
		UserID:      userID,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, account)
}

// DeleteAccount removes an account no transaction refers to.
// DELETE /api/accounts/{accountID}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.DeleteAccount(r.Context(), accountID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Account deleted successfully",
		"account": account,
	})
}
