package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// EntryRepository implements usecase.TransactionLog. The transactions
// table is append-only; no update or delete statements exist here.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Append inserts a log entry inside the given transaction.
func (r *EntryRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	pgxTx := tx.(*Tx).PgxTx()
	query := `
		INSERT INTO transactions (
			id, transaction_id, type, amount, description,
			account_number, counterparty_account_number, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.TransactionID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		entry.Description,
		entry.AccountNumber,
		nullableString(entry.CounterpartyAccountNumber),
		entry.Timestamp,
	)

	return err
}

// ListByAccount returns an account's entries, newest first. The id
// tiebreak keeps ordering stable for entries sharing a timestamp; ULIDs
// sort by creation time.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountNumber string, limit, offset int) ([]*domain.TransactionEntry, error) {
	query := `
		SELECT id, transaction_id, type, amount, description,
		       account_number, counterparty_account_number, timestamp
		FROM transactions
		WHERE account_number = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountNumber, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TransactionEntry
	for rows.Next() {
		var (
			entry        domain.TransactionEntry
			entryType    string
			amount       pgtype.Numeric
			counterparty pgtype.Text
		)

		err := rows.Scan(
			&entry.ID,
			&entry.TransactionID,
			&entryType,
			&amount,
			&entry.Description,
			&entry.AccountNumber,
			&counterparty,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, err
		}

		entry.Type = domain.TransactionType(entryType)
		entry.Amount = numericToDecimal(amount)
		entry.CounterpartyAccountNumber = counterparty.String

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// SumByAccount sums the signed entry amounts for an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_number = $1
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountNumber).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func nullableString(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
