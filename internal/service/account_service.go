// internal/service/account_service.go
package service

import (
	"context"
	"fmt"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

// AccountService covers account opening, lookup, descriptive updates and deletion.
// It never changes a balance after opening; that belongs to TransactionService.
type AccountService interface {
	CreateAccount(ctx context.Context, req domain.NewAccount) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, update domain.AccountUpdate) (*domain.Account, error)
	// DeleteAccount removes an account that no transaction record references.
	DeleteAccount(ctx context.Context, id int64) (*domain.Account, error)
}

type accountService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) AccountService {
	return &accountService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, req domain.NewAccount) (*domain.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.UserID != nil {
		if err := s.ensureUserExists(ctx, s.dbExecutor, *req.UserID); err != nil {
			return nil, err
		}
	}

	account := &domain.Account{
		AccountType: req.AccountType,
		Name:        req.Name,
		UserID:      req.UserID,
		Balance:     req.OpeningBalance,
	}
	if err := s.accountRepo.CreateAccount(ctx, s.dbExecutor, account); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, util.ErrUserNotFound
		}
		if db.IsNumericOverflow(err) {
			return nil, fmt.Errorf("%w: opening balance is too large", util.ErrInvalidAmount)
		}
		return nil, storeError("create account", err)
	}
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrAccountNotFound
		}
		return nil, storeError(fmt.Sprintf("get account %d", id), err)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, storeError("list accounts", err)
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, id int64, update domain.AccountUpdate) (*domain.Account, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, storeError("update account: failed to begin transaction", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("update account: transaction controller does not implement DBExecutor")
	}

	account, err := s.accountRepo.GetAccountForUpdate(ctx, txExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrAccountNotFound
		}
		return nil, storeError(fmt.Sprintf("update account: failed to lock account %d", id), err)
	}

	if err := update.ApplyTo(account); err != nil {
		return nil, err
	}
	if update.UserID != nil {
		if err := s.ensureUserExists(ctx, txExecutor, *update.UserID); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.UpdateAccountDetails(ctx, txExecutor, account); err != nil {
		return nil, storeError("update account", err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, storeError("update account: failed to commit transaction", err)
	}
	return account, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, id int64) (*domain.Account, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, storeError("delete account: failed to begin transaction", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("delete account: transaction controller does not implement DBExecutor")
	}

	// Holding the row lock keeps the processor from appending a record for this
	// account between the reference check and the delete.
	account, err := s.accountRepo.GetAccountForUpdate(ctx, txExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrAccountNotFound
		}
		return nil, storeError(fmt.Sprintf("delete account: failed to lock account %d", id), err)
	}

	references, err := s.transactionRepo.CountTransactionsByAccountID(ctx, txExecutor, id)
	if err != nil {
		return nil, storeError("delete account: failed to count transactions", err)
	}
	if references > 0 {
		return nil, fmt.Errorf("%w (%d records)", util.ErrAccountInUse, references)
	}

	if err := s.accountRepo.DeleteAccount(ctx, txExecutor, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, util.ErrAccountInUse
		}
		return nil, storeError("delete account", err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, storeError("delete account: failed to commit transaction", err)
	}
	return account, nil
}

func (s *accountService) ensureUserExists(ctx context.Context, q repository.DBExecutor, userID int64) error {
	if _, err := s.userRepo.GetUserByID(ctx, q, userID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return util.ErrUserNotFound
		}
		return storeError(fmt.Sprintf("failed to check user %d", userID), err)
	}
	return nil
}
