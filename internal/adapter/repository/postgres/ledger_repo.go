package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/minibank/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// FindDiscrepancies returns every account whose recorded balance differs
// from the sum of its log entries.
func (r *LedgerRepository) FindDiscrepancies(ctx context.Context) ([]*usecase.Discrepancy, error) {
	query := `
		SELECT a.account_number,
		       a.balance,
		       COALESCE(SUM(t.amount), 0) AS calculated
		FROM accounts a
		LEFT JOIN transactions t ON t.account_number = a.account_number
		GROUP BY a.account_number, a.balance
		HAVING a.balance <> COALESCE(SUM(t.amount), 0)
		ORDER BY a.account_number
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discrepancies []*usecase.Discrepancy
	for rows.Next() {
		var (
			accountNumber        string
			recorded, calculated pgtype.Numeric
		)

		if err := rows.Scan(&accountNumber, &recorded, &calculated); err != nil {
			return nil, err
		}

		recordedBalance := numericToDecimal(recorded)
		calculatedBalance := numericToDecimal(calculated)

		discrepancies = append(discrepancies, &usecase.Discrepancy{
			AccountNumber:     accountNumber,
			RecordedBalance:   recordedBalance,
			CalculatedBalance: calculatedBalance,
			Difference:        recordedBalance.Sub(calculatedBalance),
		})
	}

	return discrepancies, rows.Err()
}
