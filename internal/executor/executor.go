// Package executor runs SQL statements against the relational warehouse and
// classifies failures for the correction loop.
package executor

import (
	"context"
	"errors"
)

// Row is one result row keyed by column name.
type Row map[string]any

// RowSet is the ordered result of a successful execution. Columns preserves
// the statement's column order; Truncated is set when scanning stopped at the
// configured row cap.
type RowSet struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	Truncated bool     `json:"truncated"`
}

func (rs RowSet) RowCount() int {
	return len(rs.Rows)
}

// Executor runs a single SQL statement. Implementations perform no validation
// or rewriting of the statement text; the trust boundary is the caller.
// Failures are reported as ConnectionError or QueryError.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (RowSet, error)
}

// ConnectionError reports that the warehouse was unreachable and the
// statement was never executed. Query rewriting cannot fix it, so the
// correction loop must not retry.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "warehouse unreachable: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError reports that the warehouse rejected the statement. Message
// carries the backend diagnostic verbatim; it is the feedback signal for the
// next correction attempt.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

func AsQueryError(err error) (*QueryError, bool) {
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return queryErr, true
	}
	return nil, false
}
