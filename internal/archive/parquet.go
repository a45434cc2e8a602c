// Package archive persists finished session transcripts to the object store
// and prunes them once they age out. Archiving is best effort by design; the
// answer a session produced is never held hostage to the archive backend.
package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/sqlmend/sqlmend/internal/assist"
)

type transcriptRow struct {
	SessionID        string `parquet:"session_id"`
	Question         string `parquet:"question"`
	Attempt          int32  `parquet:"attempt"`
	SQLText          string `parquet:"sql_text"`
	ErrorMessage     string `parquet:"error_message"`
	Succeeded        bool   `parquet:"succeeded"`
	Reason           string `parquet:"reason"`
	ResultRows       int64  `parquet:"result_rows"`
	FinishedAtUnixMs int64  `parquet:"finished_at_unix_ms"`
}

// EncodeTranscript renders one parquet row per executed attempt. Terminal
// session fields repeat on every row so each file stands alone in downstream
// scans.
func EncodeTranscript(outcome assist.Outcome, finishedAt time.Time) ([]byte, error) {
	if len(outcome.Attempts) == 0 {
		return nil, fmt.Errorf("outcome has no attempts")
	}

	resultRows := int64(0)
	if outcome.RowSet != nil {
		resultRows = int64(outcome.RowSet.RowCount())
	}

	rows := make([]transcriptRow, 0, len(outcome.Attempts))
	for _, attempt := range outcome.Attempts {
		rows = append(rows, transcriptRow{
			SessionID:        outcome.SessionID,
			Question:         outcome.Question,
			Attempt:          int32(attempt.Number),
			SQLText:          attempt.SQL,
			ErrorMessage:     attempt.Error,
			Succeeded:        outcome.Succeeded,
			Reason:           outcome.Reason,
			ResultRows:       resultRows,
			FinishedAtUnixMs: finishedAt.UTC().UnixMilli(),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[transcriptRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
