package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	// TransactionTypeDeposit is a single-leg credit from outside the ledger.
	TransactionTypeDeposit TransactionType = "DEPOSIT"

	// TransactionTypeTransfer is one leg of a two-leg account-to-account movement.
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// TransactionEntry is one immutable record of a balance-affecting event.
// Entries are append-only: there is no update or delete anywhere in the
// system. Both legs of a transfer share one TransactionID; a deposit gets
// its own.
type TransactionEntry struct {
	ID                        string
	TransactionID             string
	Type                      TransactionType
	Amount                    decimal.Decimal
	Description               string
	AccountNumber             string
	CounterpartyAccountNumber string
	Timestamp                 time.Time
}

// IsDebit reports whether the entry decreased its account's balance.
func (e *TransactionEntry) IsDebit() bool {
	return e.Amount.IsNegative()
}

// IsCredit reports whether the entry increased its account's balance.
func (e *TransactionEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}
