package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlmend/sqlmend/internal/executor"
	"github.com/sqlmend/sqlmend/internal/observability"
)

const pingTimeout = 3 * time.Second

// Executor runs statements against a PostgreSQL warehouse. A short
// connectivity probe precedes every execution so that an unreachable backend
// is reported as a ConnectionError without the statement ever being sent;
// failures after the probe carry the server diagnostic verbatim.
type Executor struct {
	db      *sql.DB
	maxRows int
}

func NewExecutor(db *sql.DB, maxRows int) *Executor {
	return &Executor{db: db, maxRows: maxRows}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (executor.RowSet, error) {
	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := e.db.PingContext(pingCtx); err != nil {
		observability.ObserveQueryExecution("postgres", "connection_error", 0, time.Since(start))
		return executor.RowSet{}, &executor.ConnectionError{Err: err}
	}

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveQueryExecution("postgres", "query_error", 0, time.Since(start))
		return executor.RowSet{}, &executor.QueryError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	result, err := executor.ScanRowSet(rows, e.maxRows)
	if err != nil {
		observability.ObserveQueryExecution("postgres", "query_error", 0, time.Since(start))
		return executor.RowSet{}, &executor.QueryError{Message: err.Error()}
	}

	observability.ObserveQueryExecution("postgres", "ok", result.RowCount(), time.Since(start))
	return result, nil
}
