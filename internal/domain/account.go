// internal/domain/account.go
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger-bank/internal/util"
)

// Account is a balance-bearing record. Its balance only changes inside a committed
// ledger transaction.
type Account struct {
	ID          int64           `db:"account_id" json:"account_id"`
	AccountType string          `db:"account_type" json:"account_type"`
	Balance     decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(15, 2) in DB
	Name        string          `db:"name" json:"name"`       // Owner display name
	UserID      *int64          `db:"user_id" json:"user_id"`
}

// NewAccount carries the fields needed to open an account.
type NewAccount struct {
	AccountType    string
	Name           string
	UserID         *int64
	OpeningBalance decimal.Decimal
}

// Validate checks the opening request.
func (n NewAccount) Validate() error {
	if strings.TrimSpace(n.AccountType) == "" {
		return fmt.Errorf("%w: account_type is required", util.ErrInvalidInput)
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name is required", util.ErrInvalidInput)
	}
	if n.UserID != nil && *n.UserID <= 0 {
		return fmt.Errorf("%w: invalid user_id", util.ErrInvalidInput)
	}
	if n.OpeningBalance.IsNegative() {
		return fmt.Errorf("%w: opening balance cannot be negative", util.ErrInvalidAmount)
	}
	if !n.OpeningBalance.Equal(n.OpeningBalance.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places are allowed", util.ErrInvalidAmount, AmountScale)
	}
	if n.OpeningBalance.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: opening balance cannot exceed %s", util.ErrInvalidAmount, MaxAmount.StringFixed(AmountScale))
	}
	return nil
}

// AccountUpdate holds the descriptive fields of an account that may change.
// The balance is deliberately absent.
type AccountUpdate struct {
	AccountType *string
	Name        *string
	UserID      *int64
}

// ApplyTo copies the non-empty fields onto a.
func (u AccountUpdate) ApplyTo(a *Account) error {
	if u.AccountType != nil {
		if strings.TrimSpace(*u.AccountType) == "" {
			return fmt.Errorf("%w: account_type cannot be empty", util.ErrInvalidInput)
		}
		a.AccountType = *u.AccountType
	}
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return fmt.Errorf("%w: name cannot be empty", util.ErrInvalidInput)
		}
		a.Name = *u.Name
	}
	if u.UserID != nil {
		if *u.UserID <= 0 {
			return fmt.Errorf("%w: invalid user_id", util.ErrInvalidInput)
		}
		userID := *u.UserID
		a.UserID = &userID
	}
	return nil
}

// AccountFilter narrows an account listing. Zero values mean "any".
type AccountFilter struct {
	OwnerName string
	UserID    *int64
}

// BalanceSummary is the point-in-time total over all accounts of one owner.
type BalanceSummary struct {
	Name         string          `db:"name" json:"name"`
	TotalBalance decimal.Decimal `db:"total_balance" json:"total_balance"`
	AccountCount int             `db:"account_count" json:"account_count"`
}
