package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/minibank/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager. Every transaction it
// starts carries a local lock_timeout so FOR UPDATE waits are bounded
// instead of blocking indefinitely.
type TxManager struct {
	pool     pgxPool
	lockWait time.Duration
}

// NewTxManager creates a new TxManager with the default lock wait.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool, usecase.DefaultLockWait)
}

func newTxManagerWithPool(pool pgxPool, lockWait time.Duration) *TxManager {
	return &TxManager{pool: pool, lockWait: lockWait}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	// SET LOCAL scopes the timeout to this transaction only.
	timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockWait.Milliseconds())
	if _, err := tx.Exec(ctx, timeout); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
