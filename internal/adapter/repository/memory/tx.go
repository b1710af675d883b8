package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

var errTxFinished = errors.New("memory: transaction already finished")

// Tx is a staged transaction against a Store. Reads go to the committed
// state; writes accumulate in the Tx and become visible atomically on
// Commit. Locks acquired through the Tx are held until Commit or Rollback.
type Tx struct {
	store *Store

	locked   []string
	balances map[string]decimal.Decimal
	entries  []*domain.TransactionEntry
	finished bool
}

// lock acquires the account's lock and records it for release.
// Re-locking an account already held by this Tx is a no-op.
func (t *Tx) lock(ctx context.Context, accountNumber string) error {
	if t.finished {
		return errTxFinished
	}

	for _, held := range t.locked {
		if held == accountNumber {
			return nil
		}
	}

	if err := t.store.acquire(ctx, accountNumber); err != nil {
		return err
	}

	t.locked = append(t.locked, accountNumber)

	return nil
}

func (t *Tx) holds(accountNumber string) bool {
	for _, held := range t.locked {
		if held == accountNumber {
			return true
		}
	}

	return false
}

// stageBalance applies a delta on top of any previously staged balance,
// falling back to the committed balance as the base.
func (t *Tx) stageBalance(accountNumber string, delta decimal.Decimal) (decimal.Decimal, error) {
	if t.finished {
		return decimal.Zero, errTxFinished
	}

	if !t.holds(accountNumber) {
		return decimal.Zero, fmt.Errorf("memory: account %s mutated without lock", accountNumber)
	}

	base, staged := t.balances[accountNumber]
	if !staged {
		t.store.mu.RLock()
		account, ok := t.store.accounts[accountNumber]
		t.store.mu.RUnlock()
		if !ok {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		base = account.Balance
	}

	newBalance := base.Add(delta)
	t.balances[accountNumber] = newBalance

	return newBalance, nil
}

func (t *Tx) stageEntry(entry *domain.TransactionEntry) {
	copied := *entry
	t.entries = append(t.entries, &copied)
}

// Commit applies all staged writes atomically and releases the locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.finished {
		return errTxFinished
	}

	t.store.mu.Lock()
	for number, balance := range t.balances {
		if account, ok := t.store.accounts[number]; ok {
			account.Balance = balance
		}
	}
	for _, entry := range t.entries {
		t.store.entries[entry.AccountNumber] = append(t.store.entries[entry.AccountNumber], entry)
	}
	t.store.mu.Unlock()

	t.finish()

	return nil
}

// Rollback discards staged writes and releases the locks. Calling it
// after Commit is a no-op, matching the deferred-rollback pattern.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.finished {
		return nil
	}

	t.finish()

	return nil
}

// finish releases locks in reverse acquisition order and marks the Tx done.
func (t *Tx) finish() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.store.release(t.locked[i])
	}

	t.locked = nil
	t.finished = true
}

var _ usecase.Transaction = (*Tx)(nil)

func asTx(tx usecase.Transaction) (*Tx, error) {
	memTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}

	return memTx, nil
}
