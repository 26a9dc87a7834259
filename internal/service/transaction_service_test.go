// internal/service/transaction_service_test.go
package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/metrics"
	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

// ledgerFixture wires a transaction service to fresh mocks.
type ledgerFixture struct {
	tx       *MockTx
	accounts *MockAccountRepository
	records  *MockTransactionRepository
	executor *MockDBExecutor
	begins   int
	service  TransactionService
}

func newLedgerFixture(opts ...TransactionOption) *ledgerFixture {
	f := &ledgerFixture{
		tx:       new(MockTx),
		accounts: new(MockAccountRepository),
		records:  new(MockTransactionRepository),
		executor: new(MockDBExecutor),
	}
	beginTx, commitTx, rollbackTx := txFuncs(f.tx, &f.begins)
	f.service = NewTransactionService(
		new(MockDBBeginner),
		f.executor,
		f.accounts,
		f.records,
		beginTx,
		commitTx,
		rollbackTx,
		opts...,
	)
	// The deferred rollback runs after every scope, committed or not.
	f.tx.On("Rollback").Return(nil).Maybe()
	f.tx.On("ExecContext", mock.Anything, db.LockTimeoutStatement(DefaultLockTimeout), mock.Anything).
		Return(driver.ResultNoRows, nil).Maybe()
	return f
}

func (f *ledgerFixture) lockReturns(account *domain.Account) {
	f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, account.ID).Return(account, nil).Once()
}

func decimalEq(want string) interface{} {
	expected := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(expected) })
}

func receiver(id int64) *int64 { return &id }

func TestApplyDeposit(t *testing.T) {
	t.Run("SuccessfulDeposit", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00"), Name: "John Doe"})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), decimalEq("50.00")).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypeDeposit && tx.AccountID == 1 && tx.ReceiverAccountID == nil &&
				tx.Amount.Equal(decimal.RequireFromString("50.00"))
		})).Run(func(args mock.Arguments) {
			tx := args.Get(2).(*domain.Transaction)
			tx.ID = 42
			tx.TransactionDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		}).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("50.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(42), record.ID)
		assert.Equal(t, int64(1), record.AccountID)
		assert.Nil(t, record.ReceiverAccountID)
		assert.False(t, record.TransactionDate.IsZero())
		f.accounts.AssertExpectations(t)
		f.records.AssertExpectations(t)
		f.tx.AssertExpectations(t)
	})

	t.Run("SourceAccountNotFound", func(t *testing.T) {
		f := newLedgerFixture()
		f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, int64(999)).Return(nil, util.ErrNotFound).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("10.00"),
			SourceAccountID: 999,
		})

		assert.Nil(t, record)
		assert.True(t, errors.Is(err, util.ErrAccountNotFound))
		assert.Contains(t, err.Error(), "source")
		f.tx.AssertCalled(t, "Rollback")
		f.tx.AssertNotCalled(t, "Commit")
		f.accounts.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplyWithdrawal(t *testing.T) {
	t.Run("SuccessfulWithdrawal", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), decimalEq("-30.00")).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeWithdrawal,
			Amount:          decimal.RequireFromString("30.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.TransactionTypeWithdrawal, record.Type)
		f.accounts.AssertExpectations(t)
	})

	t.Run("ExactBalanceIsAllowed", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), decimalEq("-100.00")).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeWithdrawal,
			Amount:          decimal.RequireFromString("100.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("20.00")})

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeWithdrawal,
			Amount:          decimal.RequireFromString("30.00"),
			SourceAccountID: 1,
		})

		assert.Nil(t, record)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		f.tx.AssertNotCalled(t, "Commit")
		f.accounts.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.records.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CheckConstraintReportsInsufficientFunds", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).
			Return(&pq.Error{Code: "23514"}).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeWithdrawal,
			Amount:          decimal.RequireFromString("30.00"),
			SourceAccountID: 1,
		})

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		f.tx.AssertNotCalled(t, "Commit")
	})
}

func TestApplyTransfer(t *testing.T) {
	t.Run("SuccessfulTransfer", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("150.00")})
		f.lockReturns(&domain.Account{ID: 2, Balance: decimal.RequireFromString("300.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), decimalEq("-40.00")).Return(nil).Once()
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(2), decimalEq("40.00")).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypeTransfer && tx.AccountID == 1 &&
				tx.ReceiverAccountID != nil && *tx.ReceiverAccountID == 2
		})).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:              domain.TransactionTypeTransfer,
			Amount:            decimal.RequireFromString("40.00"),
			SourceAccountID:   1,
			ReceiverAccountID: receiver(2),
		})

		require.NoError(t, err)
		require.NotNil(t, record.ReceiverAccountID)
		assert.Equal(t, int64(2), *record.ReceiverAccountID)
		f.accounts.AssertExpectations(t)
		f.records.AssertExpectations(t)
	})

	t.Run("LocksInAscendingIDOrder", func(t *testing.T) {
		f := newLedgerFixture()
		var lockOrder []int64
		record := func(args mock.Arguments) { lockOrder = append(lockOrder, args.Get(2).(int64)) }
		f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, int64(3)).
			Run(record).Return(&domain.Account{ID: 3, Balance: decimal.Zero}, nil).Once()
		f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, int64(7)).
			Run(record).Return(&domain.Account{ID: 7, Balance: decimal.RequireFromString("10.00")}, nil).Once()
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, mock.Anything, mock.Anything).Return(nil).Twice()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:              domain.TransactionTypeTransfer,
			Amount:            decimal.RequireFromString("5.00"),
			SourceAccountID:   7,
			ReceiverAccountID: receiver(3),
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{3, 7}, lockOrder)
	})

	t.Run("ReceiverNotFound", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, int64(9)).Return(nil, util.ErrNotFound).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:              domain.TransactionTypeTransfer,
			Amount:            decimal.RequireFromString("10.00"),
			SourceAccountID:   1,
			ReceiverAccountID: receiver(9),
		})

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
		assert.Contains(t, err.Error(), "receiver")
		f.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("InsufficientFundsLeavesBothAccounts", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.lockReturns(&domain.Account{ID: 2, Balance: decimal.RequireFromString("300.00")})

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:              domain.TransactionTypeTransfer,
			Amount:            decimal.RequireFromString("150.00"),
			SourceAccountID:   1,
			ReceiverAccountID: receiver(2),
		})

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		f.accounts.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.tx.AssertNotCalled(t, "Commit")
	})
}

func TestApplyValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.TransactionRequest
		wantErr error
	}{
		{
			name:    "ZeroAmount",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeDeposit, Amount: decimal.Zero, SourceAccountID: 1},
			wantErr: util.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeWithdrawal, Amount: decimal.RequireFromString("-5"), SourceAccountID: 1},
			wantErr: util.ErrInvalidAmount,
		},
		{
			name:    "TooManyDecimals",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeDeposit, Amount: decimal.RequireFromString("1.005"), SourceAccountID: 1},
			wantErr: util.ErrInvalidAmount,
		},
		{
			name:    "AmountAboveColumnLimit",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeDeposit, Amount: decimal.RequireFromString("100000000000000.00"), SourceAccountID: 1},
			wantErr: util.ErrInvalidAmount,
		},
		{
			name:    "SelfTransfer",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeTransfer, Amount: decimal.RequireFromString("10.00"), SourceAccountID: 1, ReceiverAccountID: receiver(1)},
			wantErr: util.ErrSameAccountTransfer,
		},
		{
			name:    "TransferWithoutReceiver",
			req:     domain.TransactionRequest{Type: domain.TransactionTypeTransfer, Amount: decimal.RequireFromString("10.00"), SourceAccountID: 1},
			wantErr: util.ErrInvalidAccountReference,
		},
		{
			name:    "UnsupportedType",
			req:     domain.TransactionRequest{Type: "Refund", Amount: decimal.RequireFromString("10.00"), SourceAccountID: 1},
			wantErr: util.ErrUnsupportedTransactionType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()

			record, err := f.service.Apply(context.Background(), tt.req)

			assert.Nil(t, record)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.begins, "validation must fail before any transaction is opened")
			f.accounts.AssertNotCalled(t, "GetAccountForUpdate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestApplyStoreFailures(t *testing.T) {
	t.Run("LockTimeoutIsBusy", func(t *testing.T) {
		f := newLedgerFixture()
		f.accounts.On("GetAccountForUpdate", mock.Anything, f.tx, int64(1)).
			Return(nil, &pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"}).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("10.00"),
			SourceAccountID: 1,
		})

		assert.ErrorIs(t, err, util.ErrBusy)
		assert.Equal(t, "busy", util.Kind(err))
		f.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("DeadlockIsBusy", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).
			Return(&pq.Error{Code: "40P01"}).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("10.00"),
			SourceAccountID: 1,
		})

		assert.ErrorIs(t, err, util.ErrBusy)
	})

	t.Run("BalanceOverflowIsInvalidAmount", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("9999999999999.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), decimalEq("100.00")).
			Return(&pq.Error{Code: "22003", Message: "numeric field overflow"}).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("100.00"),
			SourceAccountID: 1,
		})

		assert.Nil(t, record)
		assert.ErrorIs(t, err, util.ErrInvalidAmount)
		assert.NotErrorIs(t, err, util.ErrStoreUnavailable)
		assert.True(t, util.IsClientError(err))
		f.tx.AssertCalled(t, "Rollback")
		f.tx.AssertNotCalled(t, "Commit")
		f.records.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RecordInsertFailureRollsBack", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(errors.New("connection reset by peer")).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("10.00"),
			SourceAccountID: 1,
		})

		assert.ErrorIs(t, err, util.ErrStoreUnavailable)
		f.tx.AssertCalled(t, "Rollback")
		f.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("CommitFailureIsStoreUnavailable", func(t *testing.T) {
		f := newLedgerFixture()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("100.00")})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
		f.tx.On("Commit").Return(errors.New("server closed the connection")).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("10.00"),
			SourceAccountID: 1,
		})

		assert.Nil(t, record)
		assert.ErrorIs(t, err, util.ErrStoreUnavailable)
	})
}

func TestApplyIgnoresCallerCancellation(t *testing.T) {
	f := newLedgerFixture()
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	f.accounts.On("GetAccountForUpdate", live, f.tx, int64(1)).
		Return(&domain.Account{ID: 1, Balance: decimal.Zero}, nil).Once()
	f.accounts.On("UpdateAccountBalance", live, f.tx, int64(1), mock.Anything).Return(nil).Once()
	f.records.On("CreateTransaction", live, f.tx, mock.Anything).Return(nil).Once()
	f.tx.On("Commit").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Apply(ctx, domain.TransactionRequest{
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.RequireFromString("10.00"),
		SourceAccountID: 1,
	})

	require.NoError(t, err)
	f.tx.AssertExpectations(t)
}

func TestApplyLockTimeoutOption(t *testing.T) {
	t.Run("CustomTimeout", func(t *testing.T) {
		f := newLedgerFixture(WithLockTimeout(250 * time.Millisecond))
		f.tx.On("ExecContext", mock.Anything, "SET LOCAL lock_timeout = '250ms'", mock.Anything).
			Return(driver.ResultNoRows, nil).Once()
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("1.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		f.tx.AssertCalled(t, "ExecContext", mock.Anything, "SET LOCAL lock_timeout = '250ms'", mock.Anything)
	})

	t.Run("ZeroDisablesTimeout", func(t *testing.T) {
		f := newLedgerFixture(WithLockTimeout(0))
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("1.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		f.tx.AssertNotCalled(t, "ExecContext", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplyPublishesCommittedRecord(t *testing.T) {
	t.Run("PublishedAfterCommit", func(t *testing.T) {
		publisher := new(MockEventPublisher)
		f := newLedgerFixture(WithPublisher(publisher))
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).
			Run(func(args mock.Arguments) { args.Get(2).(*domain.Transaction).ID = 7 }).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()
		publisher.On("PublishTransactionCommitted", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.ID == 7
		})).Return(nil).Once()

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("1.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("PublishFailureDoesNotFailApply", func(t *testing.T) {
		publisher := new(MockEventPublisher)
		f := newLedgerFixture(WithPublisher(publisher))
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})
		f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
		f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
		f.tx.On("Commit").Return(nil).Once()
		publisher.On("PublishTransactionCommitted", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		record, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("1.00"),
			SourceAccountID: 1,
		})

		require.NoError(t, err)
		assert.NotNil(t, record)
	})

	t.Run("NotPublishedOnFailure", func(t *testing.T) {
		publisher := new(MockEventPublisher)
		f := newLedgerFixture(WithPublisher(publisher))
		f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})

		_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
			Type:            domain.TransactionTypeWithdrawal,
			Amount:          decimal.RequireFromString("1.00"),
			SourceAccountID: 1,
		})

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		publisher.AssertNotCalled(t, "PublishTransactionCommitted", mock.Anything, mock.Anything)
	})
}

func TestApplyObservability(t *testing.T) {
	m := metrics.New()
	core, logs := observer.New(zapcore.InfoLevel)
	f := newLedgerFixture(WithMetrics(m), WithLogger(zap.New(core)))

	f.lockReturns(&domain.Account{ID: 1, Balance: decimal.RequireFromString("5.00")})
	f.accounts.On("UpdateAccountBalance", mock.Anything, f.tx, int64(1), mock.Anything).Return(nil).Once()
	f.records.On("CreateTransaction", mock.Anything, f.tx, mock.Anything).Return(nil).Once()
	f.tx.On("Commit").Return(nil).Once()
	_, err := f.service.Apply(context.Background(), domain.TransactionRequest{
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          decimal.RequireFromString("5.00"),
		SourceAccountID: 1,
	})
	require.NoError(t, err)

	f.lockReturns(&domain.Account{ID: 1, Balance: decimal.Zero})
	_, err = f.service.Apply(context.Background(), domain.TransactionRequest{
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          decimal.RequireFromString("5.00"),
		SourceAccountID: 1,
	})
	require.ErrorIs(t, err, util.ErrInsufficientFunds)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransactionsTotal(domain.TransactionTypeWithdrawal, "committed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransactionsTotal(domain.TransactionTypeWithdrawal, "insufficient_funds")))
	assert.Equal(t, 1, logs.FilterMessage("Transaction committed").Len())
	rejected := logs.FilterMessage("Transaction rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "insufficient_funds", rejected[0].ContextMap()["reason"])
}

func TestListTransactions(t *testing.T) {
	t.Run("DefaultsAndAccountFilter", func(t *testing.T) {
		f := newLedgerFixture()
		accountID := int64(1)
		f.accounts.On("GetAccountByID", mock.Anything, f.executor, accountID).Return(&domain.Account{ID: 1}, nil).Once()
		expected := []domain.Transaction{{ID: 2, AccountID: 1}, {ID: 1, AccountID: 1}}
		f.records.On("ListTransactions", mock.Anything, f.executor, domain.TransactionFilter{
			AccountID: &accountID,
			Limit:     domain.DefaultTransactionLimit,
			Offset:    0,
		}).Return(expected, int64(2), nil).Once()

		transactions, total, err := f.service.ListTransactions(context.Background(), domain.TransactionFilter{AccountID: &accountID, Offset: -3})

		require.NoError(t, err)
		assert.Equal(t, expected, transactions)
		assert.Equal(t, int64(2), total)
		f.records.AssertExpectations(t)
	})

	t.Run("LimitIsCapped", func(t *testing.T) {
		f := newLedgerFixture()
		f.records.On("ListTransactions", mock.Anything, f.executor, domain.TransactionFilter{
			Limit: domain.MaxTransactionLimit,
		}).Return([]domain.Transaction{}, int64(0), nil).Once()

		_, _, err := f.service.ListTransactions(context.Background(), domain.TransactionFilter{Limit: 10_000})

		require.NoError(t, err)
		f.records.AssertExpectations(t)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		f := newLedgerFixture()
		accountID := int64(404)
		f.accounts.On("GetAccountByID", mock.Anything, f.executor, accountID).Return(nil, util.ErrNotFound).Once()

		_, _, err := f.service.ListTransactions(context.Background(), domain.TransactionFilter{AccountID: &accountID})

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
		f.records.AssertNotCalled(t, "ListTransactions", mock.Anything, mock.Anything, mock.Anything)
	})
}
