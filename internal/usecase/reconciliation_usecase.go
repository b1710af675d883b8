package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase verifies that account balances match the
// transaction log they are justified by.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	log         TransactionLog
	ledgerRepo  LedgerRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(accountRepo AccountRepository, log TransactionLog, ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		log:         log,
		ledgerRepo:  ledgerRepo,
	}
}

// Discrepancy describes an account whose stored balance does not equal the
// sum of its entries.
type Discrepancy struct {
	AccountNumber     string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
}

// ReconciliationResult represents the result of a single-account check.
type ReconciliationResult struct {
	AccountNumber     string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	Reconciled        bool
	CheckedAt         time.Time
}

// ReconcileAccount recomputes an account's balance from the log and
// compares it with the stored balance.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountNumber string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.log.SumByAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	difference := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		AccountNumber:     accountNumber,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        difference,
		Reconciled:        difference.IsZero(),
		CheckedAt:         time.Now().UTC(),
	}, nil
}

// CheckConsistency verifies that every account's balance equals the sum of
// its entries. Returns the discrepancies, if any.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (bool, []*Discrepancy, error) {
	discrepancies, err := uc.ledgerRepo.FindDiscrepancies(ctx)
	if err != nil {
		return false, nil, err
	}

	return len(discrepancies) == 0, discrepancies, nil
}
