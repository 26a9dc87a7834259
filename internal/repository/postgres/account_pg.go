// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
)

const accountColumns = `account_id, account_type, balance, name, user_id`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// CreateAccount inserts a new account using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (account_type, balance, name, user_id)
              VALUES ($1, $2, $3, $4) RETURNING account_id`
	err := q.QueryRowContext(ctx, query, account.AccountType, account.Balance, account.Name, account.UserID).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID using the provided DBExecutor.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	return r.getAccount(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, id)
}

// GetAccountForUpdate retrieves an account and locks its row for the rest of the transaction.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	return r.getAccount(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1 FOR UPDATE`, id)
}

func (r *AccountRepository) getAccount(ctx context.Context, q repository.DBExecutor, query string, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := q.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %d: %w", id, err)
	}
	return &account, nil
}

// ListAccounts retrieves the accounts matching filter.
func (r *AccountRepository) ListAccounts(ctx context.Context, q repository.DBExecutor, filter domain.AccountFilter) ([]domain.Account, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.OwnerName != "" {
		args = append(args, filter.OwnerName)
		conditions = append(conditions, fmt.Sprintf("name = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY account_id`

	accounts := []domain.Account{}
	if err := q.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountDetails writes account_type, name and user_id. The balance column is not touched.
func (r *AccountRepository) UpdateAccountDetails(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `UPDATE accounts SET account_type = $1, name = $2, user_id = $3 WHERE account_id = $4`
	result, err := q.ExecContext(ctx, query, account.AccountType, account.Name, account.UserID, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", account.ID, err)
	}
	return expectOneRow(result, "account", account.ID)
}

// UpdateAccountBalance adds delta to the balance of a specific account using the provided DBExecutor.
func (r *AccountRepository) UpdateAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1 WHERE account_id = $2`
	result, err := q.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update account balance for ID %d: %w", id, err)
	}
	return expectOneRow(result, "account", id)
}

// DeleteAccount removes an account by ID.
func (r *AccountRepository) DeleteAccount(ctx context.Context, q repository.DBExecutor, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	return expectOneRow(result, "account", id)
}

// SumBalancesByOwnerName totals the balances of all accounts whose owner name matches.
func (r *AccountRepository) SumBalancesByOwnerName(ctx context.Context, q repository.DBExecutor, name string) (*domain.BalanceSummary, error) {
	summary := domain.BalanceSummary{Name: name}
	query := `SELECT COALESCE(SUM(balance), 0) AS total_balance, COUNT(*) AS account_count
              FROM accounts WHERE name = $1`
	if err := q.QueryRowContext(ctx, query, name).Scan(&summary.TotalBalance, &summary.AccountCount); err != nil {
		return nil, fmt.Errorf("failed to sum balances for owner '%s': %w", name, err)
	}
	return &summary, nil
}

// CountAccountsByUserID counts the accounts linked to a user.
func (r *AccountRepository) CountAccountsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (int64, error) {
	var count int64
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to count accounts for user %d: %w", userID, err)
	}
	return count, nil
}

func expectOneRow(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s %d: %w", entity, id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
