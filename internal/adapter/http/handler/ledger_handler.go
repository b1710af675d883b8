package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/minibank/internal/adapter/http/dto"
	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/infrastructure/metrics"
	"github.com/iho/minibank/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Deposit(ctx context.Context, caller *domain.User, input usecase.DepositInput) (*domain.Account, error)
	Transfer(ctx context.Context, caller *domain.User, input usecase.TransferInput) (*domain.Account, error)
	GetAccount(ctx context.Context, caller *domain.User, accountNumber string) (*domain.Account, error)
	ListTransactions(ctx context.Context, caller *domain.User, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error)
}

// LedgerHandler handles deposits, transfers and the transaction log.
// Mutating calls run through the retrier so transient storage conflicts
// are retried with the whole transaction.
type LedgerHandler struct {
	ledgerUC LedgerService
	retrier  usecase.Retrier
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, retrier usecase.Retrier, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{
		ledgerUC: ledgerUC,
		retrier:  retrier,
		metrics:  m,
	}
}

// Deposit credits an amount to the caller's account.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var account *domain.Account
	err := h.retrier.Retry(r.Context(), func() error {
		var opErr error
		account, opErr = h.ledgerUC.Deposit(r.Context(), caller, req.ToUseCaseInput(number))
		return opErr
	})
	if err != nil {
		h.recordLedgerError(err)
		writeError(w, mapDomainError(err), "deposit failed", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.DepositsCreated.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Transfer moves an amount from one of the caller's accounts to another
// account.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	var account *domain.Account
	err := h.retrier.Retry(r.Context(), func() error {
		var opErr error
		account, opErr = h.ledgerUC.Transfer(r.Context(), caller, req.ToUseCaseInput())
		return opErr
	})
	if err != nil {
		h.recordLedgerError(err)
		writeError(w, mapDomainError(err), "transfer failed", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.TransfersCreated.Inc()
		h.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		h.metrics.TransferAmount.Observe(req.Amount.InexactFloat64())
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// GetAccount returns one of the caller's accounts.
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")

	account, err := h.ledgerUC.GetAccount(r.Context(), caller, number)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListTransactions returns a page of the account's log entries, newest
// first.
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}

	number := chi.URLParam(r, "number")
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.ListTransactions(r.Context(), caller, usecase.ListTransactionsInput{
		AccountNumber: number,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.EntriesFromDomain(entries),
		Limit:        limit,
		Offset:       offset,
	})
}

func (h *LedgerHandler) recordLedgerError(err error) {
	if h.metrics == nil {
		return
	}

	h.metrics.LedgerErrors.WithLabelValues(ledgerErrorType(err)).Inc()
	if errors.Is(err, domain.ErrLockTimeout) {
		h.metrics.LockTimeouts.Inc()
	}
}

func ledgerErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrAmountTooLarge):
		return "invalid_amount"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "internal"
	}
}
