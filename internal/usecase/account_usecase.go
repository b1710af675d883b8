package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
)

// AccountUseCase handles account creation and lookup.
type AccountUseCase struct {
	accountRepo   AccountRepository
	idGen         IDGenerator
	numberGen     AccountNumberGenerator
	onNumberRetry func()
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, numberGen AccountNumberGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		numberGen:   numberGen,
	}
}

// OnNumberRetry registers a callback invoked on every account number
// collision retry. Used for instrumentation.
func (uc *AccountUseCase) OnNumberRetry(fn func()) {
	uc.onNumberRetry = fn
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name string
}

// CreateAccount creates an account for the caller with a fresh account
// number. Number generation retries on collision at most
// MaxAccountNumberAttempts times; the unique index on account_number is the
// final arbiter, so a lost race counts as a collision too.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, caller *domain.User, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < MaxAccountNumberAttempts; attempt++ {
		number := uc.numberGen.Generate()

		taken, err := uc.accountRepo.Exists(ctx, number)
		if err != nil {
			return nil, err
		}

		if taken {
			uc.retryNoticed()
			continue
		}

		account := &domain.Account{
			ID:            uc.idGen.Generate(),
			AccountNumber: number,
			Name:          input.Name,
			OwnerID:       caller.ID,
			Balance:       decimal.Zero,
			CreatedAt:     time.Now().UTC(),
		}

		err = uc.accountRepo.Create(ctx, account)
		if errors.Is(err, domain.ErrDuplicateAccountNumber) {
			uc.retryNoticed()
			continue
		}

		if err != nil {
			return nil, err
		}

		return account, nil
	}

	return nil, domain.ErrAccountNumberSpaceExhausted
}

func (uc *AccountUseCase) retryNoticed() {
	if uc.onNumberRetry != nil {
		uc.onNumberRetry()
	}
}

// ListMyAccounts lists all accounts owned by the caller.
func (uc *AccountUseCase) ListMyAccounts(ctx context.Context, caller *domain.User) ([]*domain.Account, error) {
	return uc.accountRepo.ListByOwner(ctx, caller.ID)
}
