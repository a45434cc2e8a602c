// Package history keeps the bounded record of answered questions. Only the
// most recent entries are retained; sessions whose generation never produced
// a statement are not recorded.
package history

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("history: not found")

// Entry records one session that attempted execution. Failed sessions are
// recorded too so their SQL can be inspected, edited and rerun.
type Entry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question,omitempty"`
	SQL       string    `json:"sql"`
	Succeeded bool      `json:"succeeded"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implementations return entries newest first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Clear(ctx context.Context) error
}
