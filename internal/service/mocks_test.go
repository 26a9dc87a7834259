// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTx stands in for *sqlx.Tx: it is both a db.TxController and a repository.DBExecutor.
type MockTx struct {
	MockDBExecutor
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner. The injected BeginTxFunc
// never calls it.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// txFuncs returns lifecycle functions bound to tx, counting begins.
func txFuncs(tx *MockTx, begins *int) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	return func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			*begins++
			return tx, nil
		},
		func(db.TxController) error {
			return tx.Commit()
		},
		func(db.TxController) {
			_ = tx.Rollback()
		}
}

// MockAccountRepository is a mock implementation of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, q repository.DBExecutor, filter domain.AccountFilter) ([]domain.Account, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountDetails(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccountBalance(ctx context.Context, q repository.DBExecutor, id int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, id, delta)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockAccountRepository) SumBalancesByOwnerName(ctx context.Context, q repository.DBExecutor, name string) (*domain.BalanceSummary, error) {
	args := m.Called(ctx, q, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSummary), args.Error(1)
}

func (m *MockAccountRepository) CountAccountsByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) CountTransactionsByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64) (int64, error) {
	args := m.Called(ctx, q, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, q repository.DBExecutor) ([]domain.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishTransactionCommitted(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
