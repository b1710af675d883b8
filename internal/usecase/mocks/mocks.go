package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
// Defaults act on an in-memory map keyed by account number; individual
// methods can be overridden via the Func fields.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                func(ctx context.Context, account *domain.Account) error
	GetByNumberFunc           func(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByNumberForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error)
	GetByNumbersForUpdateFunc func(ctx context.Context, tx usecase.Transaction, accountNumbers []string) ([]*domain.Account, error)
	MutateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, accountNumber string, delta decimal.Decimal) (decimal.Decimal, error)
	ExistsFunc                func(ctx context.Context, accountNumber string) (bool, error)
	ListByOwnerFunc           func(ctx context.Context, ownerID string) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed adds an account directly to the backing map.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.AccountNumber] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.AccountNumber]; ok {
		return domain.ErrDuplicateAccountNumber
	}
	m.accounts[account.AccountNumber] = account
	return nil
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[accountNumber]; ok {
		copied := *acc
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByNumberForUpdate(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error) {
	if m.GetByNumberForUpdateFunc != nil {
		return m.GetByNumberForUpdateFunc(ctx, tx, accountNumber)
	}
	return m.GetByNumber(ctx, accountNumber)
}

func (m *MockAccountRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Transaction, accountNumbers []string) ([]*domain.Account, error) {
	if m.GetByNumbersForUpdateFunc != nil {
		return m.GetByNumbersForUpdateFunc(ctx, tx, accountNumbers)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, number := range accountNumbers {
		if acc, ok := m.accounts[number]; ok {
			copied := *acc
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) MutateBalance(ctx context.Context, tx usecase.Transaction, accountNumber string, delta decimal.Decimal) (decimal.Decimal, error) {
	if m.MutateBalanceFunc != nil {
		return m.MutateBalanceFunc(ctx, tx, accountNumber, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountNumber]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(delta)
	return acc.Balance, nil
}

func (m *MockAccountRepository) Exists(ctx context.Context, accountNumber string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[accountNumber]
	return ok, nil
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			copied := *acc
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})
	return accounts, nil
}

// MockTransactionLog is a mock implementation of TransactionLog.
type MockTransactionLog struct {
	mu      sync.RWMutex
	entries []*domain.TransactionEntry

	AppendFunc        func(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error
	ListByAccountFunc func(ctx context.Context, accountNumber string, limit, offset int) ([]*domain.TransactionEntry, error)
	SumByAccountFunc  func(ctx context.Context, accountNumber string) (decimal.Decimal, error)
}

func NewMockTransactionLog() *MockTransactionLog {
	return &MockTransactionLog{}
}

func (m *MockTransactionLog) Append(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockTransactionLog) ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*domain.TransactionEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountNumber, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.TransactionEntry
	for _, e := range m.entries {
		if e.AccountNumber == accountNumber {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockTransactionLog) SumByAccount(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	if m.SumByAccountFunc != nil {
		return m.SumByAccountFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountNumber == accountNumber {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// All returns every appended entry.
func (m *MockTransactionLog) All() []*domain.TransactionEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TransactionEntry(nil), m.entries...)
}

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockAccountNumberGenerator is a mock implementation of AccountNumberGenerator.
type MockAccountNumberGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockAccountNumberGenerator() *MockAccountNumberGenerator {
	return &MockAccountNumberGenerator{}
}

func (m *MockAccountNumberGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%010d", m.counter)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateFunc     func(ctx context.Context, user *domain.User) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	FindDiscrepanciesFunc func(ctx context.Context) ([]*usecase.Discrepancy, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) FindDiscrepancies(ctx context.Context) ([]*usecase.Discrepancy, error) {
	if m.FindDiscrepanciesFunc != nil {
		return m.FindDiscrepanciesFunc(ctx)
	}
	return nil, nil
}
