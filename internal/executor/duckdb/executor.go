// Package duckdb runs statements against an embedded DuckDB warehouse seeded
// with the demo retail dataset. It exists so the service can be exercised end
// to end without a PostgreSQL instance.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlmend/sqlmend/internal/demo/retail"
	"github.com/sqlmend/sqlmend/internal/executor"
	"github.com/sqlmend/sqlmend/internal/observability"
)

// Executor satisfies the same contract as the PostgreSQL executor. The
// embedded engine cannot be unreachable, so every failure is a QueryError
// carried back into the correction loop.
type Executor struct {
	db      *sql.DB
	maxRows int
}

// Open opens the database at path (empty means in-memory) and seeds the
// retail dataset unless the tables are already populated.
func Open(ctx context.Context, path string, maxRows int) (*Executor, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := Seed(ctx, db, retail.Default()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed demo warehouse: %w", err)
	}
	return &Executor{db: db, maxRows: maxRows}, nil
}

func (e *Executor) Close() error {
	return e.db.Close()
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (executor.RowSet, error) {
	start := time.Now()

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveQueryExecution("duckdb", "query_error", 0, time.Since(start))
		return executor.RowSet{}, &executor.QueryError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	result, err := executor.ScanRowSet(rows, e.maxRows)
	if err != nil {
		observability.ObserveQueryExecution("duckdb", "query_error", 0, time.Since(start))
		return executor.RowSet{}, &executor.QueryError{Message: err.Error()}
	}

	observability.ObserveQueryExecution("duckdb", "ok", result.RowCount(), time.Since(start))
	return result, nil
}
