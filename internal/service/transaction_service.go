// internal/service/transaction_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/metrics"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

// DefaultLockTimeout bounds how long Apply waits for an account row lock.
const DefaultLockTimeout = 5 * time.Second

const publishTimeout = 2 * time.Second

// EventPublisher receives every committed transaction record.
type EventPublisher interface {
	PublishTransactionCommitted(ctx context.Context, tx *domain.Transaction) error
}

// TransactionService is the ledger transaction processor.
type TransactionService interface {
	// Apply validates req and, in one atomic scope, locks the accounts involved, applies the
	// balance changes and appends the transaction record. On any failure nothing persists.
	Apply(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error)
	// ListTransactions returns a page of records, newest first, and the total match count.
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
}

// TransactionOption configures optional collaborators of the transaction service.
type TransactionOption func(*transactionService)

// WithLockTimeout overrides DefaultLockTimeout. Zero waits indefinitely.
func WithLockTimeout(d time.Duration) TransactionOption {
	return func(s *transactionService) { s.lockTimeout = d }
}

// WithPublisher sets the post-commit event publisher.
func WithPublisher(p EventPublisher) TransactionOption {
	return func(s *transactionService) { s.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) TransactionOption {
	return func(s *transactionService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) TransactionOption {
	return func(s *transactionService) { s.logger = l }
}

// transactionService implements the TransactionService interface.
type transactionService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc

	lockTimeout time.Duration
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	opts ...TransactionOption,
) TransactionService {
	s := &transactionService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		lockTimeout:     DefaultLockTimeout,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// balanceChange is one leg of a transaction.
type balanceChange struct {
	accountID int64
	delta     decimal.Decimal
}

func (s *transactionService) Apply(ctx context.Context, req domain.TransactionRequest) (record *domain.Transaction, err error) {
	started := time.Now()
	defer func() { s.observe(req, record, err, time.Since(started)) }()

	if err = req.Validate(); err != nil {
		return nil, err
	}

	// Once begun, the scope commits or aborts as a unit even if the caller goes away.
	// Waiting is bounded by the lock timeout instead.
	scopeCtx := context.WithoutCancel(ctx)

	record, err = s.applyInScope(scopeCtx, req)
	if err != nil {
		return nil, err
	}

	s.publish(scopeCtx, record)
	return record, nil
}

func (s *transactionService) applyInScope(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, storeError("apply: failed to begin transaction", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("apply: transaction controller does not implement DBExecutor")
	}

	if err := db.SetLockTimeout(ctx, txExecutor, s.lockTimeout); err != nil {
		return nil, storeError("apply", err)
	}

	locked := make(map[int64]*domain.Account, 2)
	for _, id := range req.LockOrder() {
		account, err := s.accountRepo.GetAccountForUpdate(ctx, txExecutor, id)
		if err != nil {
			if errors.Is(err, util.ErrNotFound) {
				return nil, fmt.Errorf("%s %w (id %d)", roleOf(req, id), util.ErrAccountNotFound, id)
			}
			return nil, storeError(fmt.Sprintf("apply: failed to lock account %d", id), err)
		}
		locked[id] = account
	}

	changes, err := planChanges(req, locked)
	if err != nil {
		return nil, err
	}

	for _, change := range changes {
		if err := s.accountRepo.UpdateAccountBalance(ctx, txExecutor, change.accountID, change.delta); err != nil {
			if db.IsCheckViolation(err) {
				return nil, util.ErrInsufficientFunds
			}
			if db.IsNumericOverflow(err) {
				return nil, fmt.Errorf("%w: resulting balance of account %d exceeds %s",
					util.ErrInvalidAmount, change.accountID, domain.MaxAmount.StringFixed(domain.AmountScale))
			}
			return nil, storeError("apply: failed to update account balance", err)
		}
	}

	record := domain.NewTransaction(req)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, record); err != nil {
		return nil, storeError("apply: failed to create transaction", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, storeError("apply: failed to commit transaction", err)
	}

	return record, nil
}

// planChanges applies the type-specific business rule to the locked accounts.
func planChanges(req domain.TransactionRequest, locked map[int64]*domain.Account) ([]balanceChange, error) {
	source := locked[req.SourceAccountID]

	switch req.Type {
	case domain.TransactionTypeDeposit:
		return []balanceChange{{accountID: source.ID, delta: req.Amount}}, nil

	case domain.TransactionTypeWithdrawal:
		if source.Balance.LessThan(req.Amount) {
			return nil, util.ErrInsufficientFunds
		}
		return []balanceChange{{accountID: source.ID, delta: req.Amount.Neg()}}, nil

	case domain.TransactionTypeTransfer:
		receiver := locked[*req.ReceiverAccountID]
		if source.Balance.LessThan(req.Amount) {
			return nil, util.ErrInsufficientFunds
		}
		return []balanceChange{
			{accountID: source.ID, delta: req.Amount.Neg()},
			{accountID: receiver.ID, delta: req.Amount},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedTransactionType, req.Type)
	}
}

func roleOf(req domain.TransactionRequest, id int64) string {
	if id == req.SourceAccountID {
		return "source"
	}
	return "receiver"
}

func (s *transactionService) publish(ctx context.Context, record *domain.Transaction) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.PublishTransactionCommitted(pubCtx, record); err != nil {
		s.logger.Warn("Failed to publish transaction event",
			zap.Int64("transaction_id", record.ID),
			zap.Error(err),
		)
	}
}

func (s *transactionService) observe(req domain.TransactionRequest, record *domain.Transaction, err error, elapsed time.Duration) {
	outcome := "committed"
	if err != nil {
		outcome = util.Kind(err)
	}
	s.metrics.ObserveTransaction(req.Type, outcome, elapsed)

	fields := []zap.Field{
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
		zap.Int64("account_id", req.SourceAccountID),
		zap.Duration("elapsed", elapsed),
	}
	if req.ReceiverAccountID != nil {
		fields = append(fields, zap.Int64("receiver_account", *req.ReceiverAccountID))
	}

	switch {
	case err == nil:
		s.logger.Info("Transaction committed", append(fields, zap.Int64("transaction_id", record.ID))...)
	case util.IsClientError(err):
		s.logger.Info("Transaction rejected", append(fields, zap.String("reason", outcome), zap.Error(err))...)
	default:
		s.logger.Error("Transaction failed", append(fields, zap.String("reason", outcome), zap.Error(err))...)
	}
}

// ListTransactions retrieves transactions, optionally restricted to one account.
func (s *transactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	filter.Normalize()

	if filter.AccountID != nil {
		if _, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, *filter.AccountID); err != nil {
			if util.IsError(err, util.ErrNotFound) {
				return nil, 0, util.ErrAccountNotFound
			}
			return nil, 0, storeError("list transactions: failed to check account existence", err)
		}
	}

	transactions, totalCount, err := s.transactionRepo.ListTransactions(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, 0, storeError("list transactions", err)
	}
	return transactions, totalCount, nil
}
