package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// PostgreSQL error codes this package maps to domain errors.
const (
	pgErrUniqueViolation  = "23505"
	pgErrLockNotAvailable = "55P03"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account. A unique-index violation on the account
// number surfaces as ErrDuplicateAccountNumber so callers can treat the
// insert race like a generator collision.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, name, owner_id, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.Name,
		account.OwnerID,
		decimalToNumeric(account.Balance),
		account.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateAccountNumber
	}

	return err
}

// GetByNumber retrieves an account by account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := accountSelect + ` WHERE account_number = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, accountNumber))
}

// GetByNumberForUpdate retrieves an account with a FOR UPDATE row lock.
func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, tx usecase.Transaction, accountNumber string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := accountSelect + ` WHERE account_number = $1 FOR UPDATE`

	return r.scanAccount(pgxTx.QueryRow(ctx, query, accountNumber))
}

// GetByNumbersForUpdate locks multiple accounts with FOR UPDATE. The
// ORDER BY makes the locking sequence follow account-number order, the
// same total order every writer uses.
func (r *AccountRepository) GetByNumbersForUpdate(ctx context.Context, tx usecase.Transaction, accountNumbers []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := accountSelect + ` WHERE account_number = ANY($1) ORDER BY account_number FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, accountNumbers)
	if err != nil {
		return nil, mapLockError(err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(accountNumbers))
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, mapLockError(err)
	}

	return accounts, nil
}

// MutateBalance applies a signed delta to the account balance and returns
// the new balance.
func (r *AccountRepository) MutateBalance(ctx context.Context, tx usecase.Transaction, accountNumber string, delta decimal.Decimal) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		UPDATE accounts
		SET balance = balance + $2
		WHERE account_number = $1
		RETURNING balance
	`

	var balance pgtype.Numeric
	err := pgxTx.QueryRow(ctx, query, accountNumber, decimalToNumeric(delta)).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}

		return decimal.Zero, mapLockError(err)
	}

	return numericToDecimal(balance), nil
}

// Exists reports whether an account number is taken.
func (r *AccountRepository) Exists(ctx context.Context, accountNumber string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, accountNumber).Scan(&exists)

	return exists, err
}

// ListByOwner lists accounts owned by a user, ordered by account number.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	query := accountSelect + ` WHERE owner_id = $1 ORDER BY account_number`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

const accountSelect = `
	SELECT id, account_number, name, owner_id, balance, created_at
	FROM accounts`

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapLockError(err)
	}

	return account, nil
}

func scanAccountRow(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance pgtype.Numeric
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.Name,
		&account.OwnerID,
		&balance,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)

	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// mapLockError converts a lock_timeout expiry into the domain error.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrLockNotAvailable {
		return domain.ErrLockTimeout
	}

	return err
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}
