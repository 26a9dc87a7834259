// internal/service/balance_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
)

// BalanceService aggregates balances across a user's accounts.
type BalanceService interface {
	// TotalBalance sums the balances of every account whose owner name matches.
	// The result is a committed snapshot at call time and takes no locks.
	TotalBalance(ctx context.Context, ownerName string) (*domain.BalanceSummary, error)
}

type balanceService struct {
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
}

// NewBalanceService creates a new instance of BalanceService.
func NewBalanceService(dbExecutor repository.DBExecutor, accountRepo repository.AccountRepository) BalanceService {
	return &balanceService{
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
	}
}

func (s *balanceService) TotalBalance(ctx context.Context, ownerName string) (*domain.BalanceSummary, error) {
	if strings.TrimSpace(ownerName) == "" {
		return nil, fmt.Errorf("%w: owner name is required", util.ErrInvalidInput)
	}

	summary, err := s.accountRepo.SumBalancesByOwnerName(ctx, s.dbExecutor, ownerName)
	if err != nil {
		return nil, storeError("total balance", err)
	}
	if summary.AccountCount == 0 {
		return nil, util.ErrNoAccountsFound
	}
	return summary, nil
}
