// Package api exposes the HTTP surface: the ask and manual SQL endpoints,
// history, schema, auth and operational routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlmend/sqlmend/internal/archive"
	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/auth"
	"github.com/sqlmend/sqlmend/internal/config"
	"github.com/sqlmend/sqlmend/internal/history"
	"github.com/sqlmend/sqlmend/internal/observability"
	"github.com/sqlmend/sqlmend/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

// SessionRunner is the correction loop as the handlers consume it.
type SessionRunner interface {
	Run(ctx context.Context, question string) assist.Outcome
	RunSQL(ctx context.Context, sqlText string) assist.Outcome
}

// TranscriptArchiver uploads a finished session transcript.
type TranscriptArchiver interface {
	Archive(ctx context.Context, outcome assist.Outcome) (string, error)
}

// RetentionRunner triggers one transcript retention sweep.
type RetentionRunner interface {
	RunSweepOnce(ctx context.Context) (archive.RetentionSummary, error)
}

type Dependencies struct {
	Logger           *slog.Logger
	Readiness        ReadinessCheck
	AuthMiddleware   func(http.Handler) http.Handler
	DependencyTimout time.Duration
	Assist           SessionRunner
	History          history.Store
	Schema           *schema.Provider
	Passwords        *auth.PasswordVerifier
	Tokens           *auth.TokenStore
	Archiver         TranscriptArchiver
	Retention        RetentionRunner
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/login", func(w http.ResponseWriter, r *http.Request) {
		handleLogin(deps, w, r)
	})

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	protected.HandleFunc("POST /v1/sql", func(w http.ResponseWriter, r *http.Request) {
		handleRunSQL(deps, w, r)
	})
	protected.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	})
	protected.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleListHistory(deps, w, r)
	})
	protected.HandleFunc("GET /v1/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetHistory(deps, w, r)
	})
	protected.HandleFunc("POST /v1/history/{id}/rerun", func(w http.ResponseWriter, r *http.Request) {
		handleRerunHistory(deps, w, r)
	})
	protected.HandleFunc("DELETE /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleClearHistory(deps, w, r)
	})
	protected.HandleFunc("POST /v1/archive/sweep", func(w http.ResponseWriter, r *http.Request) {
		handleArchiveSweep(deps, w, r)
	})
	protected.HandleFunc("POST /v1/logout", func(w http.ResponseWriter, r *http.Request) {
		handleLogout(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/ask", protectedHandler)
	mux.Handle("POST /v1/sql", protectedHandler)
	mux.Handle("GET /v1/schema", protectedHandler)
	mux.Handle("GET /v1/history", protectedHandler)
	mux.Handle("GET /v1/history/{id}", protectedHandler)
	mux.Handle("POST /v1/history/{id}/rerun", protectedHandler)
	mux.Handle("DELETE /v1/history", protectedHandler)
	mux.Handle("POST /v1/archive/sweep", protectedHandler)
	mux.Handle("POST /v1/logout", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckWarehouseConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Warehouse.Engine == config.EnginePostgres && cfg.Warehouse.DSN == "" {
			return errors.New("warehouse dsn is not configured")
		}
		return nil
	}
}

func CheckGenerationConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Generation.BaseURL == "" {
			return errors.New("generation base url is not configured")
		}
		if cfg.Generation.APIKey == "" {
			return errors.New("generation api key is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
