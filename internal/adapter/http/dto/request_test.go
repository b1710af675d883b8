package dto

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/usecase"
)

func TestRegisterRequest_ToUseCaseInput(t *testing.T) {
	req := &RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "hunter2hunter2",
	}

	got := req.ToUseCaseInput()
	want := usecase.RegisterInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "hunter2hunter2",
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestDepositRequest_ToUseCaseInput(t *testing.T) {
	req := &DepositRequest{
		Amount:      decimal.RequireFromString("12.34"),
		Description: "payday",
	}

	got := req.ToUseCaseInput("0123456789")

	if got.AccountNumber != "0123456789" {
		t.Fatalf("account number = %s", got.AccountNumber)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("amount = %s, want 12.34", got.Amount)
	}
	if got.Description != "payday" {
		t.Fatalf("description = %s", got.Description)
	}
}

func TestTransferRequest_ToUseCaseInput(t *testing.T) {
	req := &TransferRequest{
		FromAccountNumber: "1111111111",
		ToAccountNumber:   "2222222222",
		Amount:            decimal.RequireFromString("5.50"),
		Description:       "rent",
	}

	got := req.ToUseCaseInput()

	if got.FromAccountNumber != "1111111111" || got.ToAccountNumber != "2222222222" {
		t.Fatalf("unexpected account numbers: %+v", got)
	}
	if !got.Amount.Equal(decimal.RequireFromString("5.50")) {
		t.Fatalf("amount = %s, want 5.50", got.Amount)
	}
}
