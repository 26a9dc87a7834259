// internal/api/handler/respond.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-bank/internal/util" // For custom errors
)

// DefaultTimeout bounds the time spent serving a single request.
const DefaultTimeout = 30 * time.Second

// retryAfterSeconds is advertised to callers that hit a busy account.
const retryAfterSeconds = 1

// responder holds the JSON helpers shared by every handler.
type responder struct {
	logger *zap.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses. Client errors echo their message; anything
// else is logged and answered with a generic one.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := statusFor(err)
	message := err.Error()

	switch {
	case statusCode == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		message = util.ErrBusy.Error()
		h.logger.Warn("Request rejected, account busy", zap.Error(err))
	case statusCode >= http.StatusInternalServerError:
		message = "Internal server error"
		h.logger.Error("Unhandled service error", zap.Error(err))
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// statusFor maps an error kind onto its HTTP status code.
func statusFor(err error) int {
	switch {
	case util.IsError(err, util.ErrInvalidAmount),
		util.IsError(err, util.ErrInvalidAccountReference),
		util.IsError(err, util.ErrSameAccountTransfer),
		util.IsError(err, util.ErrUnsupportedTransactionType),
		util.IsError(err, util.ErrInvalidInput):
		return http.StatusBadRequest
	case util.IsError(err, util.ErrAccountNotFound),
		util.IsError(err, util.ErrUserNotFound),
		util.IsError(err, util.ErrNoAccountsFound),
		util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound
	case util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case util.IsError(err, util.ErrAccountInUse),
		util.IsError(err, util.ErrUserInUse),
		util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict
	case util.IsError(err, util.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case util.IsError(err, util.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", util.ErrInvalidInput)
	}
	return nil
}

// FlexString accepts either a JSON string or a JSON number, keeping the literal text so
// amounts and ids are parsed exactly rather than through float64.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

func (f *FlexString) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

// parseID parses a positive identifier taken from a path or a body field.
func parseID(field, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", util.ErrInvalidInput, field, s)
	}
	return id, nil
}

// parseOptionalID parses field when present.
func parseOptionalID(field string, f *FlexString) (*int64, error) {
	if f == nil {
		return nil, nil
	}
	id, err := parseID(field, f.String())
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseBalance parses a non-negative opening balance. An absent balance is zero.
func parseBalance(f *FlexString) (decimal.Decimal, error) {
	if f == nil || strings.TrimSpace(f.String()) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(f.String()))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", util.ErrInvalidAmount, f.String())
	}
	return d, nil
}

// parsePage reads limit and offset query parameters. Missing or malformed values fall
// back to zero and are normalized by the service.
func parsePage(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 0
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
