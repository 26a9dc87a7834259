// internal/domain/transaction.go
package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations

	"ledger-bank/internal/util"
)

// AmountScale is the number of fractional digits stored for balances and amounts.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(15,2) column can hold.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// TransactionType defines the type of a financial transaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeTransfer   TransactionType = "Transfer"
)

// Valid reports whether t is one of the supported transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

// ParseTransactionType maps a caller-supplied label onto a TransactionType, ignoring case.
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.TrimSpace(s)
	for _, t := range []TransactionType{TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", util.ErrUnsupportedTransactionType, s)
}

// Transaction is the immutable record of one completed balance movement.
// A transfer is a single record carrying both endpoints.
type Transaction struct {
	ID                int64           `db:"transaction_id" json:"transaction_id"`
	Type              TransactionType `db:"transaction_type" json:"transaction_type"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`                     // NUMERIC(15, 2) in DB
	TransactionDate   time.Time       `db:"transaction_date" json:"transaction_date"` // Assigned by the store on insert
	ReceiverAccountID *int64          `db:"receiver_account" json:"receiver_account"` // Set only for transfers
	AccountID         int64           `db:"account_id" json:"account_id"`             // Source account
}

// NewTransaction builds the record for a validated request. ID and TransactionDate are
// filled in by the store.
func NewTransaction(req TransactionRequest) *Transaction {
	tx := &Transaction{
		Type:      req.Type,
		Amount:    req.Amount,
		AccountID: req.SourceAccountID,
	}
	if req.Type == TransactionTypeTransfer && req.ReceiverAccountID != nil {
		receiver := *req.ReceiverAccountID
		tx.ReceiverAccountID = &receiver
	}
	return tx
}

// TransactionRequest is a requested money movement.
type TransactionRequest struct {
	Type              TransactionType
	Amount            decimal.Decimal
	SourceAccountID   int64
	ReceiverAccountID *int64
}

// Validate checks the request without touching any account state.
func (r TransactionRequest) Validate() error {
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if r.SourceAccountID <= 0 {
		return fmt.Errorf("%w: invalid source account ID", util.ErrInvalidAccountReference)
	}
	switch r.Type {
	case TransactionTypeDeposit, TransactionTypeWithdrawal:
		return nil
	case TransactionTypeTransfer:
		if r.ReceiverAccountID == nil || *r.ReceiverAccountID <= 0 {
			return fmt.Errorf("%w: invalid receiver account ID for transfer", util.ErrInvalidAccountReference)
		}
		if *r.ReceiverAccountID == r.SourceAccountID {
			return util.ErrSameAccountTransfer
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", util.ErrUnsupportedTransactionType, r.Type)
	}
}

// LockOrder returns the account ids the request touches, ascending. Every caller locks
// rows in this order so two transfers over the same pair can never wait on each other
// in a cycle.
func (r TransactionRequest) LockOrder() []int64 {
	ids := []int64{r.SourceAccountID}
	if r.Type == TransactionTypeTransfer && r.ReceiverAccountID != nil && *r.ReceiverAccountID != r.SourceAccountID {
		ids = append(ids, *r.ReceiverAccountID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidateAmount checks that d is positive and fits the stored scale.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", util.ErrInvalidAmount)
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places are allowed", util.ErrInvalidAmount, AmountScale)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: amount cannot exceed %s", util.ErrInvalidAmount, MaxAmount.StringFixed(AmountScale))
	}
	return nil
}

// ParseAmount parses a decimal amount such as "50.00".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", util.ErrInvalidAmount, s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseAccountID parses a positive account identifier.
func ParseAccountID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", util.ErrInvalidAccountReference, s)
	}
	return id, nil
}

// Pagination bounds for transaction listings.
const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

// TransactionFilter narrows a transaction listing. A nil AccountID lists everything.
type TransactionFilter struct {
	AccountID *int64
	Limit     int
	Offset    int
}

// Normalize clamps Limit and Offset into their allowed ranges.
func (f *TransactionFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultTransactionLimit
	}
	if f.Limit > MaxTransactionLimit {
		f.Limit = MaxTransactionLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
