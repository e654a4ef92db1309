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
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/handler"
	apimiddleware "github.com/mimhaad/finance-ledger/internal/adapter/http/middleware"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/auth"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointUsesConfiguredHandler(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("gl_up 1\n"))
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "gl_up") {
		t.Fatalf("unexpected /metrics response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(0.001, 1, nil)
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
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/float-accounts/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !store.updateCalled {
		t.Fatalf("expected successful response to be stored, status %d", rec.Code)
	}
}

func TestNewRouter_AuthAndRoles(t *testing.T) {
	manager := auth.NewJWTManager("router-secret")
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.TokenVerifier = manager
	}))

	token := func(role domain.Role) string {
		tok, err := manager.Generate(&domain.User{ID: "user-" + string(role), Role: role}, time.Hour)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/v1/accounts", want: http.StatusUnauthorized},
		{name: "viewer reads", method: http.MethodGet, path: "/api/v1/accounts", auth: token(domain.RoleViewer), want: http.StatusOK},
		{name: "viewer cannot sync", method: http.MethodPost, path: "/api/v1/float-accounts/sync", auth: token(domain.RoleViewer), want: http.StatusForbidden},
		{name: "accountant syncs", method: http.MethodPost, path: "/api/v1/float-accounts/sync", auth: token(domain.RoleAccountant), want: http.StatusOK},
		{name: "accountant cannot ensure", method: http.MethodPost, path: "/api/v1/accounts/ensure", auth: token(domain.RoleAccountant), want: http.StatusForbidden},
		{name: "health stays open", method: http.MethodGet, path: "/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
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
		"GET /metrics",
		"GET /api/v1/accounts/{id}/balance",
		"GET /api/v1/accounts/by-code/{code}/balance",
		"GET /api/v1/reports/trial-balance",
		"POST /api/v1/transactions/{transactionID}/post",
		"GET /api/v1/transactions/{transactionID}/journal-entries",
		"POST /api/v1/journal-entries/{id}/reverse",
		"POST /api/v1/accounts/ensure",
		"POST /api/v1/float-accounts/sync",
		"POST /api/v1/journal-entries",
		"DELETE /api/v1/journal-entries/{id}",
		"PUT /api/v1/float-accounts/{id}",
		"GET /api/v1/ledger/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	chart := stubChart{}
	posting := stubPosting{}

	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(nil, nil),
		AccountHandler:     handler.NewAccountHandler(chart),
		EntryHandler:       handler.NewEntryHandler(stubDrafter{}, posting),
		TransactionHandler: handler.NewTransactionHandler(posting),
		ReportHandler:      handler.NewReportHandler(stubTrialBalance{}),
		FloatHandler:       handler.NewFloatHandler(stubFloat{}),
		LedgerHandler:      handler.NewLedgerHandler(stubLedger{}, stubReconciler{}),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubChart struct{}

func (stubChart) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error) {
	return &domain.GLAccount{ID: "acc", Code: input.Code, Name: input.Name, Type: domain.AccountTypeAsset}, nil
}

func (stubChart) GetAccountByID(ctx context.Context, id string) (*domain.GLAccount, error) {
	return &domain.GLAccount{ID: id, Code: "1001", Type: domain.AccountTypeAsset}, nil
}

func (stubChart) GetAccountByCode(ctx context.Context, code string) (*domain.GLAccount, error) {
	return &domain.GLAccount{ID: "acc", Code: code, Type: domain.AccountTypeAsset}, nil
}

func (stubChart) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
	return []*domain.GLAccount{}, nil
}

func (stubChart) GetAccountTree(ctx context.Context) ([]*domain.AccountNode, error) {
	return []*domain.AccountNode{}, nil
}

func (stubChart) GetAccountBalance(ctx context.Context, id string) (*domain.AccountBalance, error) {
	return domain.NewAccountBalance(&domain.GLAccount{ID: id, Code: "1001", Type: domain.AccountTypeAsset}), nil
}

func (stubChart) GetAccountBalanceByCode(ctx context.Context, code string) (*domain.AccountBalance, error) {
	return domain.NewAccountBalance(&domain.GLAccount{ID: "acc", Code: code, Type: domain.AccountTypeAsset}), nil
}

func (stubChart) EnsureRequiredAccounts(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
	return []*domain.GLAccount{}, nil
}

type stubDrafter struct{}

func (stubDrafter) CreateDraft(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error) {
	return &domain.JournalEntry{ID: "je", TransactionID: input.TransactionID, Status: domain.EntryStatusDraft}, nil
}

type stubPosting struct{}

func (stubPosting) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return &domain.JournalEntry{ID: id, Status: domain.EntryStatusDraft}, nil
}

func (stubPosting) Post(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error) {
	return &domain.JournalEntry{ID: entryID, Status: domain.EntryStatusPosted}, nil
}

func (stubPosting) Reverse(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error) {
	return &domain.JournalEntry{ID: "rev", ReversesEntryID: &entryID, Status: domain.EntryStatusPosted}, nil
}

func (stubPosting) DiscardDraft(ctx context.Context, entryID, userID string) error {
	return nil
}

func (stubPosting) PostGLTransaction(ctx context.Context, transactionID, userID string) ([]*domain.JournalEntry, error) {
	return []*domain.JournalEntry{}, nil
}

func (stubPosting) GetJournalEntriesByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error) {
	return []*domain.JournalEntry{}, nil
}

type stubTrialBalance struct{}

func (stubTrialBalance) GetTrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalanceReport, error) {
	return domain.NewTrialBalanceReport(time.Now(), nil), nil
}

type stubFloat struct{}

func (stubFloat) ListFloatAccounts(ctx context.Context) ([]*domain.FloatAccount, error) {
	return []*domain.FloatAccount{}, nil
}

func (stubFloat) UpdateFloatAccount(ctx context.Context, float *domain.FloatAccount, userID string) (*domain.FloatAccount, error) {
	return float, nil
}

func (stubFloat) SyncFloatBalances(ctx context.Context, userID string) (*domain.FloatSyncResult, error) {
	return &domain.FloatSyncResult{}, nil
}

type stubLedger struct{}

func (stubLedger) CheckConsistency(ctx context.Context) (*usecase.LedgerTotals, error) {
	return &usecase.LedgerTotals{TotalDebits: decimal.Zero.StringFixed(2), TotalCredits: decimal.Zero.StringFixed(2), Consistent: true}, nil
}

type stubReconciler struct{}

func (stubReconciler) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{LedgerConsistent: true, CheckedAt: time.Now()}, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
