package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/auth"
	"github.com/sqlmend/sqlmend/internal/config"
)

func TestHealthEndpoint(t *testing.T) {
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{
		Readiness: func(rctx context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{
		"SQLMEND_AUTH_REQUIRED":      "true",
		"SQLMEND_AUTH_PASSWORD_HASH": string(hash),
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	tokens := auth.NewTokenStore(cfg.Auth.TokenTTL)
	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, tokens),
		Assist:         &fakeSessionRunner{},
	})

	unauthResp := httptest.NewRecorder()
	h.ServeHTTP(unauthResp, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))
	if unauthResp.Code != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d", unauthResp.Code)
	}

	token, _ := tokens.Issue()
	authReq := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`))
	authReq.Header.Set("Authorization", "Bearer "+token)
	authResp := httptest.NewRecorder()
	h.ServeHTTP(authResp, authReq)
	if authResp.Code != http.StatusOK {
		t.Fatalf("auth status = %d", authResp.Code)
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	order := make([]int, 0, 3)
	combined := CombineReadinessChecks(
		func(_ context.Context) error {
			order = append(order, 1)
			return nil
		},
		func(_ context.Context) error {
			order = append(order, 2)
			return errors.New("boom")
		},
		func(_ context.Context) error {
			order = append(order, 3)
			return nil
		},
	)

	err := combined(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("execution order = %#v", order)
	}
}

func TestCheckWarehouseConfigRequiresPostgresDSN(t *testing.T) {
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{
		"SQLMEND_WAREHOUSE_ENGINE": "postgres",
		"SQLMEND_WAREHOUSE_DSN":    "",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	if err := CheckWarehouseConfig(cfg)(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}

	cfg.Warehouse.Engine = config.EngineDuckDB
	if err := CheckWarehouseConfig(cfg)(context.Background()); err != nil {
		t.Fatalf("duckdb readiness failed: %v", err)
	}
}

func TestCheckGenerationConfigRequiresKey(t *testing.T) {
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	if err := CheckGenerationConfig(cfg)(context.Background()); err == nil {
		t.Fatal("expected readiness failure without api key")
	}

	cfg.Generation.APIKey = "k1"
	if err := CheckGenerationConfig(cfg)(context.Background()); err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type fakeSessionRunner struct {
	runOutcome    assist.Outcome
	runSQLOutcome assist.Outcome
	gotQuestion   string
	gotSQL        string
}

func (f *fakeSessionRunner) Run(_ context.Context, question string) assist.Outcome {
	f.gotQuestion = question
	return f.runOutcome
}

func (f *fakeSessionRunner) RunSQL(_ context.Context, sqlText string) assist.Outcome {
	f.gotSQL = sqlText
	return f.runSQLOutcome
}

type fakeArchiver struct {
	outcomes []assist.Outcome
	key      string
	err      error
}

func (f *fakeArchiver) Archive(_ context.Context, outcome assist.Outcome) (string, error) {
	f.outcomes = append(f.outcomes, outcome)
	return f.key, f.err
}
