package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
)

// AccountRepository defines data access for accounts, keyed by account number.
type AccountRepository interface {
	// Create inserts a new account. Returns domain.ErrDuplicateAccountNumber
	// if the account number is already taken.
	Create(ctx context.Context, account *domain.Account) error
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	// GetByNumberForUpdate locks the account row for the duration of tx.
	GetByNumberForUpdate(ctx context.Context, tx Transaction, accountNumber string) (*domain.Account, error)
	// GetByNumbersForUpdate locks multiple accounts. Callers must pass
	// accountNumbers in sorted order so locks are always acquired in the
	// same total order.
	GetByNumbersForUpdate(ctx context.Context, tx Transaction, accountNumbers []string) ([]*domain.Account, error)
	// MutateBalance applies delta to the account's balance and returns the
	// new balance. The caller must already hold the account's lock via tx.
	MutateBalance(ctx context.Context, tx Transaction, accountNumber string, delta decimal.Decimal) (decimal.Decimal, error)
	Exists(ctx context.Context, accountNumber string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
}

// TransactionLog defines append-only access to transaction entries.
// There is deliberately no update or delete.
type TransactionLog interface {
	Append(ctx context.Context, tx Transaction, entry *domain.TransactionEntry) error
	// ListByAccount returns entries ordered by timestamp descending.
	ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*domain.TransactionEntry, error)
	// SumByAccount returns the sum of entry amounts for an account.
	SumByAccount(ctx context.Context, accountNumber string) (decimal.Decimal, error)
}

// LedgerRepository defines ledger-wide operations.
type LedgerRepository interface {
	// FindDiscrepancies returns every account whose stored balance differs
	// from the sum of its transaction entries.
	FindDiscrepancies(ctx context.Context) ([]*Discrepancy, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Transaction represents a storage transaction covering the
// balance-mutation-plus-log-append unit.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs for entities and transactions.
type IDGenerator interface {
	Generate() string
}

// AccountNumberGenerator produces candidate fixed-length numeric account
// numbers. Candidates are not guaranteed unique; the account use case
// retries against AccountRepository.Exists a bounded number of times.
type AccountNumberGenerator interface {
	Generate() string
}

// Retrier re-runs an operation when it fails with a transient storage
// error. Implementations decide which errors qualify.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// NopRetrier runs the operation exactly once. Used with backends that
// have no transient failure modes.
type NopRetrier struct{}

func (NopRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
