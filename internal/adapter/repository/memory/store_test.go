package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/adapter/repository/memory"
	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
	"github.com/iho/minibank/internal/usecase/mocks"
)

var (
	testAlice = &domain.User{ID: "user-alice", Email: "alice@example.com", Name: "Alice"}
	testBob   = &domain.User{ID: "user-bob", Email: "bob@example.com", Name: "Bob"}
)

func newLedger(t *testing.T, store *memory.Store) *usecase.LedgerUseCase {
	t.Helper()
	return usecase.NewLedgerUseCase(store, store, store, mocks.NewMockIDGenerator())
}

func seedStoreAccount(t *testing.T, store *memory.Store, number, ownerID string, balance int64) {
	t.Helper()

	err := store.Create(context.Background(), &domain.Account{
		ID:            "acc-" + number,
		AccountNumber: number,
		Name:          "Account " + number,
		OwnerID:       ownerID,
		Balance:       decimal.NewFromInt(balance),
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("Create(%s) unexpected error: %v", number, err)
	}
}

func TestStore_DepositCommitsBalanceAndEntry(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store)
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 0)

	account, err := ledger.Deposit(context.Background(), testAlice, usecase.DepositInput{
		AccountNumber: "1111111111",
		Amount:        decimal.NewFromInt(250),
	})
	if err != nil {
		t.Fatalf("Deposit() unexpected error: %v", err)
	}

	if !account.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("balance = %s, want 250", account.Balance)
	}

	entries, err := store.ListByAccount(context.Background(), "1111111111", 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount() unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != domain.TransactionTypeDeposit {
		t.Errorf("entry type = %s, want %s", entries[0].Type, domain.TransactionTypeDeposit)
	}
}

func TestStore_FailedTransferLeavesNoTrace(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store)
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 30)
	seedStoreAccount(t, store, "2222222222", testBob.ID, 0)

	_, err := ledger.Transfer(context.Background(), testAlice, usecase.TransferInput{
		FromAccountNumber: "1111111111",
		ToAccountNumber:   "2222222222",
		Amount:            decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("Transfer() error = %v, want ErrInsufficientBalance", err)
	}

	from, _ := store.GetByNumber(context.Background(), "1111111111")
	to, _ := store.GetByNumber(context.Background(), "2222222222")
	if !from.Balance.Equal(decimal.NewFromInt(30)) || !to.Balance.IsZero() {
		t.Errorf("balances mutated by failed transfer: from=%s to=%s", from.Balance, to.Balance)
	}

	for _, number := range []string{"1111111111", "2222222222"} {
		entries, err := store.ListByAccount(context.Background(), number, 10, 0)
		if err != nil {
			t.Fatalf("ListByAccount(%s) unexpected error: %v", number, err)
		}
		if len(entries) != 0 {
			t.Errorf("failed transfer logged %d entries on %s", len(entries), number)
		}
	}
}

func TestStore_RollbackDiscardsStagedWrites(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 100)

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}

	if _, err := store.GetByNumberForUpdate(ctx, tx, "1111111111"); err != nil {
		t.Fatalf("GetByNumberForUpdate() unexpected error: %v", err)
	}

	newBalance, err := store.MutateBalance(ctx, tx, "1111111111", decimal.NewFromInt(-60))
	if err != nil {
		t.Fatalf("MutateBalance() unexpected error: %v", err)
	}
	if !newBalance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("staged balance = %s, want 40", newBalance)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() unexpected error: %v", err)
	}

	account, err := store.GetByNumber(ctx, "1111111111")
	if err != nil {
		t.Fatalf("GetByNumber() unexpected error: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance after rollback = %s, want 100", account.Balance)
	}
}

func TestStore_MutateBalanceRequiresLock(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 100)

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := store.MutateBalance(ctx, tx, "1111111111", decimal.NewFromInt(1)); err == nil {
		t.Error("expected error mutating unlocked account")
	}
}

func TestStore_LockTimeout(t *testing.T) {
	store := memory.NewStoreWithLockWait(50 * time.Millisecond)
	ctx := context.Background()
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 100)

	holder, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	if _, err := store.GetByNumberForUpdate(ctx, holder, "1111111111"); err != nil {
		t.Fatalf("GetByNumberForUpdate() unexpected error: %v", err)
	}

	waiter, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	defer waiter.Rollback(ctx)

	_, err = store.GetByNumberForUpdate(ctx, waiter, "1111111111")
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Errorf("GetByNumberForUpdate() error = %v, want ErrLockTimeout", err)
	}

	if err := holder.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() unexpected error: %v", err)
	}

	// Lock is free again after release.
	retry, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	defer retry.Rollback(ctx)

	if _, err := store.GetByNumberForUpdate(ctx, retry, "1111111111"); err != nil {
		t.Errorf("GetByNumberForUpdate() after release: %v", err)
	}
}

// Opposite-direction transfers against the same pair of accounts must
// neither deadlock nor lose money. Lock acquisition in account-number
// order is what makes this safe.
func TestStore_ConcurrentOppositeTransfers(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store)
	ctx := context.Background()

	seedStoreAccount(t, store, "1111111111", testAlice.ID, 0)
	seedStoreAccount(t, store, "2222222222", testBob.ID, 0)

	if _, err := ledger.Deposit(ctx, testAlice, usecase.DepositInput{AccountNumber: "1111111111", Amount: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("Deposit() unexpected error: %v", err)
	}
	if _, err := ledger.Deposit(ctx, testBob, usecase.DepositInput{AccountNumber: "2222222222", Amount: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("Deposit() unexpected error: %v", err)
	}

	const rounds = 100

	var wg sync.WaitGroup
	wg.Add(2 * rounds)

	for range rounds {
		go func() {
			defer wg.Done()
			_, err := ledger.Transfer(ctx, testAlice, usecase.TransferInput{
				FromAccountNumber: "1111111111",
				ToAccountNumber:   "2222222222",
				Amount:            decimal.NewFromInt(1),
			})
			if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
				t.Errorf("Transfer A->B unexpected error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := ledger.Transfer(ctx, testBob, usecase.TransferInput{
				FromAccountNumber: "2222222222",
				ToAccountNumber:   "1111111111",
				Amount:            decimal.NewFromInt(1),
			})
			if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
				t.Errorf("Transfer B->A unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	a, err := store.GetByNumber(ctx, "1111111111")
	if err != nil {
		t.Fatalf("GetByNumber() unexpected error: %v", err)
	}
	b, err := store.GetByNumber(ctx, "2222222222")
	if err != nil {
		t.Fatalf("GetByNumber() unexpected error: %v", err)
	}

	total := a.Balance.Add(b.Balance)
	if !total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("total = %s, want 2000 (a=%s b=%s)", total, a.Balance, b.Balance)
	}

	// Every balance must still equal the sum of its log entries.
	discrepancies, err := store.FindDiscrepancies(ctx)
	if err != nil {
		t.Fatalf("FindDiscrepancies() unexpected error: %v", err)
	}
	if len(discrepancies) != 0 {
		t.Errorf("ledger inconsistent after stress run: %+v", discrepancies)
	}
}

func TestStore_ListByAccountPagination(t *testing.T) {
	store := memory.NewStore()
	ledger := newLedger(t, store)
	ctx := context.Background()
	seedStoreAccount(t, store, "1111111111", testAlice.ID, 0)

	amounts := []int64{10, 20, 30, 40, 50}
	for _, amount := range amounts {
		if _, err := ledger.Deposit(ctx, testAlice, usecase.DepositInput{
			AccountNumber: "1111111111",
			Amount:        decimal.NewFromInt(amount),
		}); err != nil {
			t.Fatalf("Deposit(%d) unexpected error: %v", amount, err)
		}
	}

	page, err := store.ListByAccount(ctx, "1111111111", 2, 1)
	if err != nil {
		t.Fatalf("ListByAccount() unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}

	// Newest first: deposits 50, 40, 30, 20, 10; offset 1 starts at 40.
	if !page[0].Amount.Equal(decimal.NewFromInt(40)) || !page[1].Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("page = [%s, %s], want [40, 30]", page[0].Amount, page[1].Amount)
	}
}
