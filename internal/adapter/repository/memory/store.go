// Package memory provides an in-process implementation of the account
// store and transaction log. It is used by the server's memory backend and
// by tests that need real locking behavior without a database.
//
// Concurrency model: one binary-semaphore lock per account number,
// acquired with a bounded wait. A transaction stages its writes and
// applies them under the store-wide mutex on Commit, so readers observe
// either none or all of a transfer's four effects.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// Store holds accounts and transaction entries in memory.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	entries  map[string][]*domain.TransactionEntry

	lockMu   sync.Mutex
	locks    map[string]chan struct{}
	lockWait time.Duration
}

// NewStore creates a Store with the default lock wait.
func NewStore() *Store {
	return NewStoreWithLockWait(usecase.DefaultLockWait)
}

// NewStoreWithLockWait creates a Store whose lock acquisitions time out
// after lockWait.
func NewStoreWithLockWait(lockWait time.Duration) *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		entries:  make(map[string][]*domain.TransactionEntry),
		locks:    make(map[string]chan struct{}),
		lockWait: lockWait,
	}
}

func (s *Store) semaphore(accountNumber string) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	ch, ok := s.locks[accountNumber]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[accountNumber] = ch
	}

	return ch
}

// acquire takes the account's lock, waiting at most lockWait.
func (s *Store) acquire(ctx context.Context, accountNumber string) error {
	ch := s.semaphore(accountNumber)

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(accountNumber string) {
	<-s.semaphore(accountNumber)
}

// Begin starts a staged transaction. Implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &Tx{
		store:    s,
		balances: make(map[string]decimal.Decimal),
	}, nil
}

// Create inserts a new account. Implements usecase.AccountRepository.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountNumber]; ok {
		return domain.ErrDuplicateAccountNumber
	}

	copied := *account
	s.accounts[account.AccountNumber] = &copied

	return nil
}

// GetByNumber retrieves an account by account number.
func (s *Store) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	copied := *account

	return &copied, nil
}

// GetByNumberForUpdate locks the account for the transaction and returns it.
func (s *Store) GetByNumberForUpdate(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error) {
	memTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if err := memTx.lock(ctx, accountNumber); err != nil {
		return nil, err
	}

	return s.GetByNumber(ctx, accountNumber)
}

// GetByNumbersForUpdate locks each account in the order given. Callers
// pass sorted numbers so the lock order is a fixed total order.
func (s *Store) GetByNumbersForUpdate(ctx context.Context, tx usecase.Transaction, accountNumbers []string) ([]*domain.Account, error) {
	memTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(accountNumbers))
	for _, number := range accountNumbers {
		if err := memTx.lock(ctx, number); err != nil {
			return nil, err
		}

		account, err := s.GetByNumber(ctx, number)
		if err != nil {
			if err == domain.ErrAccountNotFound {
				continue
			}
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

// MutateBalance stages a balance delta. The transaction must already hold
// the account's lock.
func (s *Store) MutateBalance(ctx context.Context, tx usecase.Transaction, accountNumber string, delta decimal.Decimal) (decimal.Decimal, error) {
	memTx, err := asTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	return memTx.stageBalance(accountNumber, delta)
}

// Exists reports whether an account number is taken.
func (s *Store) Exists(ctx context.Context, accountNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[accountNumber]

	return ok, nil
}

// ListByOwner lists accounts owned by a user, ordered by account number.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*domain.Account
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			copied := *account
			accounts = append(accounts, &copied)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})

	return accounts, nil
}

// Append stages a transaction entry. Implements usecase.TransactionLog.
func (s *Store) Append(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	memTx, err := asTx(tx)
	if err != nil {
		return err
	}

	memTx.stageEntry(entry)

	return nil
}

// ListByAccount returns committed entries, newest first.
func (s *Store) ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*domain.TransactionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[accountNumber]

	// Entries are appended in commit order; walk backwards for
	// timestamp-descending output.
	var entries []*domain.TransactionEntry
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		entries = append(entries, &copied)
	}

	if offset >= len(entries) {
		return nil, nil
	}

	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	return entries, nil
}

// SumByAccount sums committed entry amounts for an account.
func (s *Store) SumByAccount(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, entry := range s.entries[accountNumber] {
		sum = sum.Add(entry.Amount)
	}

	return sum, nil
}

// FindDiscrepancies implements usecase.LedgerRepository.
func (s *Store) FindDiscrepancies(ctx context.Context) ([]*usecase.Discrepancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var discrepancies []*usecase.Discrepancy
	for number, account := range s.accounts {
		sum := decimal.Zero
		for _, entry := range s.entries[number] {
			sum = sum.Add(entry.Amount)
		}

		if !account.Balance.Equal(sum) {
			discrepancies = append(discrepancies, &usecase.Discrepancy{
				AccountNumber:     number,
				RecordedBalance:   account.Balance,
				CalculatedBalance: sum,
				Difference:        account.Balance.Sub(sum),
			})
		}
	}

	sort.Slice(discrepancies, func(i, j int) bool {
		return discrepancies[i].AccountNumber < discrepancies[j].AccountNumber
	})

	return discrepancies, nil
}

var (
	_ usecase.AccountRepository  = (*Store)(nil)
	_ usecase.TransactionLog     = (*Store)(nil)
	_ usecase.LedgerRepository   = (*Store)(nil)
	_ usecase.TransactionManager = (*Store)(nil)
)
