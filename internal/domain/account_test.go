package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name    string
		balance decimal.Decimal
		amount  decimal.Decimal
		wantErr error
	}{
		{
			name:    "sufficient balance",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(40),
			wantErr: nil,
		},
		{
			name:    "exact balance",
			balance: decimal.NewFromInt(100),
			amount:  decimal.NewFromInt(100),
			wantErr: nil,
		},
		{
			name:    "insufficient balance",
			balance: decimal.NewFromInt(60),
			amount:  decimal.NewFromInt(1000),
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "zero balance",
			balance: decimal.Zero,
			amount:  decimal.NewFromInt(1),
			wantErr: ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Balance: tt.balance}

			err := a.ValidateDebit(tt.amount)
			if err != tt.wantErr {
				t.Errorf("ValidateDebit() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccount_ApplyDebitCredit(t *testing.T) {
	a := &Account{Balance: decimal.NewFromInt(100)}

	if got := a.ApplyDebit(decimal.NewFromInt(40)); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("ApplyDebit() = %s, want 60", got)
	}

	if got := a.ApplyCredit(decimal.NewFromInt(40)); !got.Equal(decimal.NewFromInt(140)) {
		t.Errorf("ApplyCredit() = %s, want 140", got)
	}

	// Applying never mutates the account itself.
	if !a.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance mutated to %s", a.Balance)
	}
}

func TestAccount_OwnedBy(t *testing.T) {
	a := &Account{OwnerID: "user-1"}

	if !a.OwnedBy("user-1") {
		t.Error("expected account to be owned by user-1")
	}

	if a.OwnedBy("user-2") {
		t.Error("expected account not to be owned by user-2")
	}
}

func TestTransactionEntry_Direction(t *testing.T) {
	debit := &TransactionEntry{Amount: decimal.NewFromInt(-40)}
	credit := &TransactionEntry{Amount: decimal.NewFromInt(40)}

	if !debit.IsDebit() || debit.IsCredit() {
		t.Error("expected negative amount to be a debit")
	}

	if !credit.IsCredit() || credit.IsDebit() {
		t.Error("expected positive amount to be a credit")
	}
}
