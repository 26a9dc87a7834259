// internal/repository/account_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"ledger-bank/internal/domain"
)

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// CreateAccount inserts a new account and fills in its ID.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByID reads an account without locking it.
	GetAccountByID(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// GetAccountForUpdate reads an account and holds its row lock until q's transaction ends.
	GetAccountForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// ListAccounts returns the accounts matching filter, ordered by ID.
	ListAccounts(ctx context.Context, q DBExecutor, filter domain.AccountFilter) ([]domain.Account, error)
	// UpdateAccountDetails writes the descriptive fields of an account; the balance is never written.
	UpdateAccountDetails(ctx context.Context, q DBExecutor, account *domain.Account) error
	// UpdateAccountBalance adds delta (which may be negative) to the account balance.
	UpdateAccountBalance(ctx context.Context, q DBExecutor, id int64, delta decimal.Decimal) error
	// DeleteAccount removes an account.
	DeleteAccount(ctx context.Context, q DBExecutor, id int64) error
	// SumBalancesByOwnerName totals the balances of every account carrying the owner name.
	SumBalancesByOwnerName(ctx context.Context, q DBExecutor, name string) (*domain.BalanceSummary, error)
	// CountAccountsByUserID counts the accounts linked to a user.
	CountAccountsByUserID(ctx context.Context, q DBExecutor, userID int64) (int64, error)
}
