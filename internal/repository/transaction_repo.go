// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"ledger-bank/internal/domain"
)

// TransactionRepository defines the interface for the append-only transaction log.
type TransactionRepository interface {
	// CreateTransaction appends a record and fills in its store-assigned ID and date.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// ListTransactions returns a page of records, newest first, plus the total match count.
	ListTransactions(ctx context.Context, q DBExecutor, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
	// CountTransactionsByAccountID counts records naming the account as source or receiver.
	CountTransactionsByAccountID(ctx context.Context, q DBExecutor, accountID int64) (int64, error)
}
