package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound             = errors.New("account not found")
	ErrDuplicateAccountNumber      = errors.New("account number already exists")
	ErrAccountNumberSpaceExhausted = errors.New("could not generate a unique account number")

	// Ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrPermissionDenied    = errors.New("caller does not own this account")
	ErrLockTimeout         = errors.New("timed out waiting for account lock")
)
