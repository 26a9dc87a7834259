// internal/util/errors.go
package util

import "errors"

// Ledger errors. Input validation kinds are detected before any lock is taken.
var (
	ErrInvalidAmount              = errors.New("invalid transaction amount")
	ErrInvalidAccountReference    = errors.New("invalid account reference")
	ErrSameAccountTransfer        = errors.New("source and receiver accounts cannot be the same for transfer")
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")
	ErrAccountNotFound            = errors.New("account not found")
	ErrInsufficientFunds          = errors.New("insufficient funds in source account")
	ErrNoAccountsFound            = errors.New("no accounts found for this user")
	ErrBusy                       = errors.New("account is busy, try again later")
	ErrStoreUnavailable           = errors.New("store unavailable")
)

// Common application-specific errors.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrAccountInUse       = errors.New("account is referenced by transactions")
	ErrUserInUse          = errors.New("user still owns accounts")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsClientError reports whether err is a recoverable failure caused by the request
// itself, whose message may be shown to the caller.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrInvalidAccountReference,
		ErrSameAccountTransfer,
		ErrUnsupportedTransactionType,
		ErrAccountNotFound,
		ErrInsufficientFunds,
		ErrNoAccountsFound,
		ErrNotFound,
		ErrInvalidInput,
		ErrUserNotFound,
		ErrDuplicateEntry,
		ErrAccountInUse,
		ErrUserInUse,
		ErrInvalidCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Kind returns a short stable label for the class of err, suitable for metrics labels
// and log fields. Unclassified errors are reported as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidAccountReference):
		return "invalid_account_reference"
	case errors.Is(err, ErrSameAccountTransfer):
		return "same_account_transfer"
	case errors.Is(err, ErrUnsupportedTransactionType):
		return "unsupported_transaction_type"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
