package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/minibank/internal/adapter/http/dto"
	"github.com/iho/minibank/internal/adapter/http/handler"
	"github.com/iho/minibank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/minibank/internal/adapter/repository/postgres"
	"github.com/iho/minibank/internal/usecase"
)

// newTestAPI wires the full stack against the in-memory backend.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	userStore := memory.NewUserStore()

	idGen := postgresRepo.NewULIDGenerator()
	numberGen := postgresRepo.NewAccountNumberGenerator()

	userUC := usecase.NewUserUseCase(userStore, idGen)
	accountUC := usecase.NewAccountUseCase(store, idGen, numberGen)
	ledgerUC := usecase.NewLedgerUseCase(store, store, store, idGen)
	reconciliationUC := usecase.NewReconciliationUseCase(store, store, store)

	jwtManager := newRouterJWTManager()

	return NewRouter(RouterConfig{
		AuthHandler:           handler.NewAuthHandler(userUC, jwtManager, nil),
		AccountHandler:        handler.NewAccountHandler(accountUC, nil),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC, usecase.NopRetrier{}, nil),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC, nil),
		HealthHandler:         handler.NewHealthHandler(nil, nil),

		JWTManager:     jwtManager,
		UserRepository: userStore,
		Logger:         zerolog.Nop(),
	})
}

func apiCall(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func registerUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := apiCall(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "Sup3rSecret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeBody[dto.AuthResponse](t, rec).Token
}

func createAccount(t *testing.T, router http.Handler, token, name string) string {
	t.Helper()

	rec := apiCall(t, router, http.MethodPost, "/api/v1/accounts/", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decodeBody[dto.AccountResponse](t, rec).AccountNumber
}

func TestAPI_DepositTransferFlow(t *testing.T) {
	router := newTestAPI(t)

	token := registerUser(t, router, "alice@example.com")
	from := createAccount(t, router, token, "Checking")
	to := createAccount(t, router, token, "Savings")

	rec := apiCall(t, router, http.MethodPost, "/api/v1/accounts/"+from+"/deposits", token, map[string]string{
		"amount": "100.50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = apiCall(t, router, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"from_account_number": from,
		"to_account_number":   to,
		"amount":              "40.25",
		"description":         "moving savings",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	source := decodeBody[dto.AccountResponse](t, rec)
	require.True(t, source.Balance.Equal(decimal.RequireFromString("60.25")), "source balance = %s", source.Balance)

	rec = apiCall(t, router, http.MethodGet, "/api/v1/accounts/"+to, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dest := decodeBody[dto.AccountResponse](t, rec)
	require.True(t, dest.Balance.Equal(decimal.RequireFromString("40.25")), "destination balance = %s", dest.Balance)

	rec = apiCall(t, router, http.MethodGet, "/api/v1/accounts/"+from+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decodeBody[dto.ListTransactionsResponse](t, rec)
	require.Len(t, page.Transactions, 2)

	// Newest first: the transfer debit precedes the deposit.
	require.Equal(t, "transfer", page.Transactions[0].Type)
	require.Equal(t, to, page.Transactions[0].CounterpartyAccountNumber)
}

func TestAPI_InsufficientBalanceLeavesLedgerConsistent(t *testing.T) {
	router := newTestAPI(t)

	token := registerUser(t, router, "alice@example.com")
	from := createAccount(t, router, token, "Checking")
	to := createAccount(t, router, token, "Savings")

	rec := apiCall(t, router, http.MethodPost, "/api/v1/transfers", token, map[string]string{
		"from_account_number": from,
		"to_account_number":   to,
		"amount":              "10",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = apiCall(t, router, http.MethodGet, "/api/v1/ledger/consistency", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeBody[dto.ConsistencyResponse](t, rec)
	require.True(t, result.Consistent, "discrepancies: %+v", result.Discrepancies)
}

func TestAPI_CallerCannotTouchForeignAccount(t *testing.T) {
	router := newTestAPI(t)

	aliceToken := registerUser(t, router, "alice@example.com")
	bobToken := registerUser(t, router, "bob@example.com")

	aliceAccount := createAccount(t, router, aliceToken, "Checking")

	rec := apiCall(t, router, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%s/deposits", aliceAccount), bobToken, map[string]string{
		"amount": "5",
	})
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = apiCall(t, router, http.MethodGet, "/api/v1/accounts/"+aliceAccount, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestAPI_ReconcileAccount(t *testing.T) {
	router := newTestAPI(t)

	token := registerUser(t, router, "alice@example.com")
	number := createAccount(t, router, token, "Checking")

	rec := apiCall(t, router, http.MethodPost, "/api/v1/accounts/"+number+"/deposits", token, map[string]string{
		"amount": "75",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = apiCall(t, router, http.MethodGet, "/api/v1/accounts/"+number+"/reconciliation", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeBody[dto.ReconciliationResponse](t, rec)
	require.True(t, result.Reconciled)
	require.True(t, result.CalculatedBalance.Equal(decimal.RequireFromString("75")), "calculated = %s", result.CalculatedBalance)
}
