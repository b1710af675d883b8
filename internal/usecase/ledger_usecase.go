package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
)

// LedgerUseCase is the transfer engine: it owns every balance mutation and
// guarantees each one commits together with its transaction entries.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	log         TransactionLog
	idGen       IDGenerator
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	log TransactionLog,
	idGen IDGenerator,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		log:         log,
		idGen:       idGen,
	}
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}

// Deposit credits amount to the account and appends one DEPOSIT entry.
// The balance mutation and the log append commit as one unit.
func (uc *LedgerUseCase) Deposit(ctx context.Context, caller *domain.User, input DepositInput) (*domain.Account, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin deposit: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByNumberForUpdate(ctx, tx, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(caller.ID) {
		return nil, domain.ErrPermissionDenied
	}

	newBalance, err := uc.accountRepo.MutateBalance(ctx, tx, input.AccountNumber, input.Amount)
	if err != nil {
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = "Deposit to account"
	}

	entry := &domain.TransactionEntry{
		ID:            uc.idGen.Generate(),
		TransactionID: uc.idGen.Generate(),
		Type:          domain.TransactionTypeDeposit,
		Amount:        input.Amount,
		Description:   description,
		AccountNumber: account.AccountNumber,
		Timestamp:     time.Now().UTC(),
	}

	if err := uc.log.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit deposit: %w", err)
	}

	account.Balance = newBalance

	return account, nil
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            decimal.Decimal
	Description       string
}

// Transfer moves amount between two accounts. Both balance mutations and
// both log entries commit atomically; on any failure none of the four
// effects is observable.
//
// Locks are always acquired in lexicographic order of the account numbers,
// never in from-then-to order, so two opposite-direction transfers over the
// same pair cannot deadlock.
func (uc *LedgerUseCase) Transfer(ctx context.Context, caller *domain.User, input TransferInput) (*domain.Account, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.FromAccountNumber == input.ToAccountNumber {
		return nil, domain.ErrSameAccount
	}

	lockOrder := []string{input.FromAccountNumber, input.ToAccountNumber}
	sort.Strings(lockOrder)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByNumbersForUpdate(ctx, tx, lockOrder)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(lockOrder) {
		return nil, domain.ErrAccountNotFound
	}

	var from, to *domain.Account
	for _, a := range accounts {
		switch a.AccountNumber {
		case input.FromAccountNumber:
			from = a
		case input.ToAccountNumber:
			to = a
		}
	}

	if from == nil || to == nil {
		return nil, domain.ErrAccountNotFound
	}

	if !from.OwnedBy(caller.ID) {
		return nil, domain.ErrPermissionDenied
	}

	// Rejected before any mutation; the deferred rollback releases locks.
	if err := from.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	fromBalance, err := uc.accountRepo.MutateBalance(ctx, tx, from.AccountNumber, input.Amount.Neg())
	if err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.MutateBalance(ctx, tx, to.AccountNumber, input.Amount); err != nil {
		return nil, err
	}

	transactionID := uc.idGen.Generate()
	now := time.Now().UTC()

	debitDescription := input.Description
	if debitDescription == "" {
		debitDescription = "Transfer to " + to.AccountNumber
	}

	creditDescription := input.Description
	if creditDescription == "" {
		creditDescription = "Transfer from " + from.AccountNumber
	}

	debit := &domain.TransactionEntry{
		ID:                        uc.idGen.Generate(),
		TransactionID:             transactionID,
		Type:                      domain.TransactionTypeTransfer,
		Amount:                    input.Amount.Neg(),
		Description:               debitDescription,
		AccountNumber:             from.AccountNumber,
		CounterpartyAccountNumber: to.AccountNumber,
		Timestamp:                 now,
	}

	credit := &domain.TransactionEntry{
		ID:                        uc.idGen.Generate(),
		TransactionID:             transactionID,
		Type:                      domain.TransactionTypeTransfer,
		Amount:                    input.Amount,
		Description:               creditDescription,
		AccountNumber:             to.AccountNumber,
		CounterpartyAccountNumber: from.AccountNumber,
		Timestamp:                 now,
	}

	if err := uc.log.Append(ctx, tx, debit); err != nil {
		return nil, err
	}

	if err := uc.log.Append(ctx, tx, credit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}

	from.Balance = fromBalance

	return from, nil
}

// GetAccount returns the caller's account by number.
func (uc *LedgerUseCase) GetAccount(ctx context.Context, caller *domain.User, accountNumber string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(caller.ID) {
		return nil, domain.ErrPermissionDenied
	}

	return account, nil
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	AccountNumber string
	Limit         int
	Offset        int
}

// ListTransactions lists the caller's transaction entries, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, caller *domain.User, input ListTransactionsInput) ([]*domain.TransactionEntry, error) {
	account, err := uc.accountRepo.GetByNumber(ctx, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(caller.ID) {
		return nil, domain.ErrPermissionDenied
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.log.ListByAccount(ctx, input.AccountNumber, limit, offset)
}
