package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountNumberLength is the fixed length of generated account numbers.
const AccountNumberLength = 10

// Account represents a customer account that holds a balance.
// Balance is only ever mutated through the ledger use case; every mutation
// has a matching immutable TransactionEntry.
type Account struct {
	ID            string
	AccountNumber string
	Name          string
	OwnerID       string
	Balance       decimal.Decimal
	CreatedAt     time.Time
}

// ValidateDebit checks if the account can be debited by amount without
// going negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns the new balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the new balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// OwnedBy reports whether the account belongs to the given user.
func (a *Account) OwnedBy(userID string) bool {
	return a.OwnerID == userID
}
