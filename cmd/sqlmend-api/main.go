package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sqlmend/sqlmend/internal/api"
	"github.com/sqlmend/sqlmend/internal/archive"
	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/auth"
	"github.com/sqlmend/sqlmend/internal/config"
	"github.com/sqlmend/sqlmend/internal/executor"
	executorduckdb "github.com/sqlmend/sqlmend/internal/executor/duckdb"
	executorpostgres "github.com/sqlmend/sqlmend/internal/executor/postgres"
	"github.com/sqlmend/sqlmend/internal/history"
	historypostgres "github.com/sqlmend/sqlmend/internal/history/postgres"
	"github.com/sqlmend/sqlmend/internal/nl2sql"
	"github.com/sqlmend/sqlmend/internal/observability"
	"github.com/sqlmend/sqlmend/internal/schema"
	s3store "github.com/sqlmend/sqlmend/internal/storage/s3"
)

func main() {
	// Absent .env files are fine; this only matters for local development.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("sqlmend-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	provider := schema.Retail()

	var warehouse executor.Executor
	switch cfg.Warehouse.Engine {
	case config.EnginePostgres:
		db, err := executorpostgres.Open(executorpostgres.DBConfig{
			DSN:             cfg.Warehouse.DSN,
			MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
			MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
			ConnMaxIdleTime: cfg.Warehouse.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open warehouse db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		warehouse = executorpostgres.NewExecutor(db, cfg.Warehouse.MaxRows)
	case config.EngineDuckDB:
		duck, err := executorduckdb.Open(context.Background(), cfg.Warehouse.DuckDBPath, cfg.Warehouse.MaxRows)
		if err != nil {
			logger.Error("failed to open demo warehouse", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = duck.Close() }()
		warehouse = duck
	}

	var generator nl2sql.Generator
	switch cfg.Generation.Provider {
	case config.ProviderGemini:
		generator, err = nl2sql.NewGeminiGenerator(nl2sql.GeminiConfig{
			BaseURL:     cfg.Generation.BaseURL,
			APIKey:      cfg.Generation.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			Timeout:     cfg.Generation.Timeout,
		}, provider)
	case config.ProviderOpenAI:
		generator, err = nl2sql.NewOpenAIGenerator(nl2sql.OpenAIConfig{
			BaseURL:     cfg.Generation.BaseURL,
			APIKey:      cfg.Generation.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			Timeout:     cfg.Generation.Timeout,
		}, provider)
	}
	if err != nil {
		logger.Error("failed to initialize generator", slog.Any("error", err))
		os.Exit(1)
	}

	controller := &assist.Controller{
		Generator:   generator,
		Executor:    warehouse,
		MaxAttempts: cfg.Assist.MaxAttempts,
		Logger:      logger,
	}

	var historyStore history.Store
	var historyHealth api.ReadinessCheck
	switch cfg.History.Backend {
	case config.HistoryPostgres:
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN: cfg.History.DSN,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()
		store := historypostgres.NewStore(historyDB, cfg.History.Limit)
		historyStore = store
		historyHealth = store.HealthCheck
	case config.HistoryMemory:
		historyStore = history.NewMemoryStore(cfg.History.Limit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Dependencies{
		Logger:  logger,
		Assist:  controller,
		History: historyStore,
		Schema:  provider,
		Readiness: api.CombineReadinessChecks(
			api.CheckWarehouseConfig(cfg),
			api.CheckGenerationConfig(cfg),
			historyHealth,
		),
		DependencyTimout: time.Second,
	}

	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Archiver = &archive.Archiver{Store: objectStore, Logger: logger}
		sweeper := &archive.RetentionService{
			Store: objectStore,
			Config: archive.RetentionConfig{
				RetentionAge:  cfg.Archive.RetentionAge,
				SweepInterval: cfg.Archive.SweepInterval,
			},
			Logger: logger,
		}
		deps.Retention = sweeper
		go func() {
			if err := sweeper.Run(ctx); err != nil {
				logger.Error("retention sweeper stopped", slog.Any("error", err))
			}
		}()
	}

	if cfg.Auth.PasswordHash != "" {
		verifier, err := auth.NewPasswordVerifier(cfg.Auth.PasswordHash)
		if err != nil {
			logger.Error("failed to parse password hash", slog.Any("error", err))
			os.Exit(1)
		}
		tokens := auth.NewTokenStore(cfg.Auth.TokenTTL)
		deps.Passwords = verifier
		deps.Tokens = tokens
		if cfg.Auth.Required {
			deps.AuthMiddleware = auth.Middleware(logger, tokens)
		}
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("engine", cfg.Warehouse.Engine),
			slog.String("provider", cfg.Generation.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
