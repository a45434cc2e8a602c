package executor

import (
	"database/sql"
	"fmt"
)

// ScanRowSet drains rows into a RowSet, stopping after maxRows rows when
// maxRows is positive. Shared by the engine implementations.
func ScanRowSet(rows *sql.Rows, maxRows int) (RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return RowSet{}, fmt.Errorf("query columns: %w", err)
	}

	out := RowSet{Columns: columns, Rows: make([]Row, 0)}
	for rows.Next() {
		if maxRows > 0 && len(out.Rows) == maxRows {
			out.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return RowSet{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return RowSet{}, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}
