// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction record. transaction_date is left to the
// column default so the timestamp is assigned by the store.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (transaction_type, amount, receiver_account, account_id)
              VALUES ($1, $2, $3, $4) RETURNING transaction_id, transaction_date`

	err := q.QueryRowContext(ctx, query,
		transaction.Type,
		transaction.Amount,
		transaction.ReceiverAccountID,
		transaction.AccountID,
	).Scan(&transaction.ID, &transaction.TransactionDate)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions retrieves a page of transactions, newest first.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	filter.Normalize()
	transactions := []domain.Transaction{}

	where := ``
	args := []interface{}{}
	if filter.AccountID != nil {
		// An account's history covers incoming transfers as well as its own movements.
		where = ` WHERE account_id = $1 OR receiver_account = $1`
		args = append(args, *filter.AccountID)
	}

	query := fmt.Sprintf(`
		SELECT transaction_id, transaction_type, amount, transaction_date, receiver_account, account_id
		FROM transactions%s
		ORDER BY transaction_date DESC, transaction_id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	if err := q.SelectContext(ctx, &transactions, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var totalCount int64
	if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count: %w", err)
	}

	return transactions, totalCount, nil
}

// CountTransactionsByAccountID counts the records that reference an account.
func (r *TransactionRepository) CountTransactionsByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = $1 OR receiver_account = $1`
	if err := q.GetContext(ctx, &count, query, accountID); err != nil {
		return 0, fmt.Errorf("failed to count transactions for account %d: %w", accountID, err)
	}
	return count, nil
}
