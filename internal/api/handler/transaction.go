// internal/api/handler/transaction.go
package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ledger-bank/internal/api/types"
	"ledger-bank/internal/domain"
	"ledger-bank/internal/service"
)

// TransactionHandler handles HTTP requests that move money or read the ledger.
type TransactionHandler struct {
	responder
	transactions service.TransactionService
	balances     service.BalanceService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactions service.TransactionService, balances service.BalanceService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		responder:    responder{logger: logger},
		transactions: transactions,
		balances:     balances,
	}
}

// CreateTransactionRequest represents the request body for a ledger transaction.
// Amount and account ids may be sent as JSON strings or numbers.
type CreateTransactionRequest struct {
	TransactionType string      `json:"transaction_type"`
	Amount          FlexString  `json:"amount"`
	AccountID       FlexString  `json:"account_id"`
	ReceiverAccount *FlexString `json:"receiver_account"`
}

// toDomain parses the raw fields. Business validation happens in the service.
func (req CreateTransactionRequest) toDomain() (domain.TransactionRequest, error) {
	txType, err := domain.ParseTransactionType(req.TransactionType)
	if err != nil {
		return domain.TransactionRequest{}, err
	}
	amount, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		return domain.TransactionRequest{}, err
	}
	sourceID, err := domain.ParseAccountID(req.AccountID.String())
	if err != nil {
		return domain.TransactionRequest{}, err
	}

	out := domain.TransactionRequest{
		Type:            txType,
		Amount:          amount,
		SourceAccountID: sourceID,
	}
	if req.ReceiverAccount != nil && strings.TrimSpace(req.ReceiverAccount.String()) != "" {
		receiverID, err := domain.ParseAccountID(req.ReceiverAccount.String())
		if err != nil {
			return domain.TransactionRequest{}, err
		}
		out.ReceiverAccountID = &receiverID
	}
	return out, nil
}

// CreateTransaction applies a deposit, withdrawal or transfer.
// POST /api/transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	txReq, err := req.toDomain()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	record, err := h.transactions.Apply(r.Context(), txReq)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, record)
}

// ListTransactions returns the ledger, newest first.
// GET /api/transactions?account_id=&limit=&offset=
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter domain.TransactionFilter
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, err := domain.ParseAccountID(raw)
		if err != nil {
			h.respondWithError(w, err)
			return
		}
		filter.AccountID = &accountID
	}
	filter.Limit, filter.Offset = parsePage(r)

	transactions, totalCount, err := h.transactions.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	// Report the bounds the service actually applied.
	filter.Normalize()
	h.respondWithJSON(w, http.StatusOK, types.NewPaginatedResponse(transactions, filter.Limit, filter.Offset, totalCount))
}

// GetTotalBalance sums the balances of every account held under a name.
// GET /api/users/{user}/balance
func (h *TransactionHandler) GetTotalBalance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "user")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	summary, err := h.balances.TotalBalance(r.Context(), name)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, summary)
}
