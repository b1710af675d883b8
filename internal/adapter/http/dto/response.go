package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransactionEntryResponse represents a log entry in API responses.
type TransactionEntryResponse struct {
	ID                        string          `json:"id"`
	TransactionID             string          `json:"transaction_id"`
	Type                      string          `json:"type"`
	Amount                    decimal.Decimal `json:"amount"`
	Description               string          `json:"description"`
	AccountNumber             string          `json:"account_number"`
	CounterpartyAccountNumber string          `json:"counterparty_account_number,omitempty"`
	Timestamp                 time.Time       `json:"timestamp"`
}

// EntryFromDomain converts a domain entry to response.
func EntryFromDomain(e *domain.TransactionEntry) *TransactionEntryResponse {
	return &TransactionEntryResponse{
		ID:                        e.ID,
		TransactionID:             e.TransactionID,
		Type:                      string(e.Type),
		Amount:                    e.Amount,
		Description:               e.Description,
		AccountNumber:             e.AccountNumber,
		CounterpartyAccountNumber: e.CounterpartyAccountNumber,
		Timestamp:                 e.Timestamp,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.TransactionEntry) []*TransactionEntryResponse {
	result := make([]*TransactionEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListTransactionsResponse wraps a page of log entries.
type ListTransactionsResponse struct {
	Transactions []*TransactionEntryResponse `json:"transactions"`
	Limit        int                         `json:"limit"`
	Offset       int                         `json:"offset"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts a domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse represents a successful login or registration.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// DiscrepancyResponse represents a reconciliation discrepancy.
type DiscrepancyResponse struct {
	AccountNumber     string          `json:"account_number"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// DiscrepanciesFromUseCase converts discrepancies to responses.
func DiscrepanciesFromUseCase(discrepancies []*usecase.Discrepancy) []*DiscrepancyResponse {
	result := make([]*DiscrepancyResponse, len(discrepancies))
	for i, d := range discrepancies {
		result[i] = &DiscrepancyResponse{
			AccountNumber:     d.AccountNumber,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		}
	}
	return result
}

// ConsistencyResponse represents a ledger-wide consistency check.
type ConsistencyResponse struct {
	Consistent    bool                   `json:"consistent"`
	Discrepancies []*DiscrepancyResponse `json:"discrepancies"`
}

// ReconciliationResponse represents a single-account reconciliation.
type ReconciliationResponse struct {
	AccountNumber     string          `json:"account_number"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	Reconciled        bool            `json:"reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountNumber:     r.AccountNumber,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Reconciled:        r.Reconciled,
		CheckedAt:         r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
