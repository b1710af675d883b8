package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/minibank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/minibank/internal/adapter/http/middleware"
	"github.com/iho/minibank/internal/domain"
	"github.com/iho/minibank/internal/infrastructure/auth"
	"github.com/iho/minibank/internal/usecase"
	"github.com/iho/minibank/internal/usecase/mocks"
)

var routerTestUser = &domain.User{ID: "user-1", Email: "alice@example.com", Name: "Alice"}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_ProtectedRouteRequiresToken(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	jwtManager := newRouterJWTManager()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	token, err := jwtManager.Generate(routerTestUser)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	body := `{"name":"Main"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{number}",
		"POST /api/v1/accounts/{number}/deposits",
		"GET /api/v1/accounts/{number}/transactions",
		"GET /api/v1/accounts/{number}/reconciliation",
		"POST /api/v1/transfers",
		"GET /api/v1/ledger/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("router-test-secret", time.Minute)
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	userRepo := mocks.NewMockUserRepository()
	userRepo.GetByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
		if id == routerTestUser.ID {
			return routerTestUser, nil
		}
		return nil, domain.ErrUserNotFound
	}

	cfg := RouterConfig{
		AuthHandler:           handler.NewAuthHandler(stubUserService{}, newRouterJWTManager(), nil),
		AccountHandler:        handler.NewAccountHandler(stubAccountService{}, nil),
		LedgerHandler:         handler.NewLedgerHandler(stubLedgerService{}, usecase.NopRetrier{}, nil),
		ReconciliationHandler: handler.NewReconciliationHandler(stubReconciliationService{}, nil),
		HealthHandler:         handler.NewHealthHandler(nil, nil),

		JWTManager:     newRouterJWTManager(),
		UserRepository: userRepo,
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubUserService struct{}

func (stubUserService) Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error) {
	return routerTestUser, nil
}

func (stubUserService) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error) {
	return routerTestUser, nil
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, caller *domain.User, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc", AccountNumber: "0123456789", OwnerID: caller.ID}, nil
}

func (stubAccountService) ListMyAccounts(ctx context.Context, caller *domain.User) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) Deposit(ctx context.Context, caller *domain.User, input usecase.DepositInput) (*domain.Account, error) {
	return &domain.Account{AccountNumber: input.AccountNumber}, nil
}

func (stubLedgerService) Transfer(ctx context.Context, caller *domain.User, input usecase.TransferInput) (*domain.Account, error) {
	return &domain.Account{AccountNumber: input.FromAccountNumber}, nil
}

func (stubLedgerService) GetAccount(ctx context.Context, caller *domain.User, accountNumber string) (*domain.Account, error) {
	return &domain.Account{AccountNumber: accountNumber}, nil
}

func (stubLedgerService) ListTransactions(ctx context.Context, caller *domain.User, input usecase.ListTransactionsInput) ([]*domain.TransactionEntry, error) {
	return []*domain.TransactionEntry{}, nil
}

type stubReconciliationService struct{}

func (stubReconciliationService) ReconcileAccount(ctx context.Context, accountNumber string) (*usecase.ReconciliationResult, error) {
	return &usecase.ReconciliationResult{AccountNumber: accountNumber, Reconciled: true}, nil
}

func (stubReconciliationService) CheckConsistency(ctx context.Context) (bool, []*usecase.Discrepancy, error) {
	return true, nil, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
