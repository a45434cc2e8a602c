package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sqlmend/sqlmend/internal/history"
	"github.com/sqlmend/sqlmend/internal/observability"
)

// Store persists history entries in PostgreSQL. Appends prune everything
// older than the newest limit rows, so the table never grows past the bound.
type Store struct {
	db    *sql.DB
	limit int
}

func NewStore(db *sql.DB, limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{db: db, limit: limit}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, entry history.Entry) error {
	insert := `
INSERT INTO query_history (history_id, question, sql_text, succeeded, row_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, insert,
		entry.ID,
		entry.Question,
		entry.SQL,
		entry.Succeeded,
		entry.RowCount,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	prune := `
DELETE FROM query_history
WHERE history_id NOT IN (
	SELECT history_id FROM query_history
	ORDER BY created_at DESC, history_id DESC
	LIMIT $1
)`
	if _, err := s.db.ExecContext(ctx, prune, s.limit); err != nil {
		return fmt.Errorf("prune history entries: %w", err)
	}

	s.refreshGauge(ctx)
	return nil
}

func (s *Store) List(ctx context.Context) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT history_id, question, sql_text, succeeded, row_count, created_at
FROM query_history
ORDER BY created_at DESC, history_id DESC
LIMIT $1`, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var entry history.Entry
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.SQL, &entry.Succeeded, &entry.RowCount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

func (s *Store) Get(ctx context.Context, id string) (history.Entry, error) {
	query := `
SELECT history_id, question, sql_text, succeeded, row_count, created_at
FROM query_history
WHERE history_id = $1`

	var entry history.Entry
	if err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.Question,
		&entry.SQL,
		&entry.Succeeded,
		&entry.RowCount,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, history.ErrNotFound
		}
		return history.Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM query_history`); err != nil {
		return fmt.Errorf("clear history entries: %w", err)
	}
	observability.SetHistoryEntries(0)
	return nil
}

// refreshGauge is best effort; a failed count must not fail the append that
// triggered it.
func (s *Store) refreshGauge(ctx context.Context) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_history`).Scan(&count); err != nil {
		return
	}
	observability.SetHistoryEntries(count)
}
