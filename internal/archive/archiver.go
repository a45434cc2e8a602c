package archive

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/observability"
	"github.com/sqlmend/sqlmend/internal/storage"
)

// Archiver uploads session transcripts as parquet objects. Failures are
// logged and counted but never surfaced to the session that produced the
// transcript.
type Archiver struct {
	Store  storage.ObjectStore
	Logger *slog.Logger
	Clock  func() time.Time
}

// Archive encodes and uploads the transcript for a finished session. It
// returns the object key on success. Sessions that never executed a statement
// have no transcript and are skipped with an empty key.
func (a *Archiver) Archive(ctx context.Context, outcome assist.Outcome) (string, error) {
	if len(outcome.Attempts) == 0 {
		return "", nil
	}

	clock := a.Clock
	if clock == nil {
		clock = time.Now
	}
	finishedAt := clock().UTC()

	key, err := storage.BuildTranscriptPath(outcome.SessionID, finishedAt)
	if err != nil {
		a.reportFailure(ctx, outcome.SessionID, err)
		return "", err
	}

	data, err := EncodeTranscript(outcome, finishedAt)
	if err != nil {
		a.reportFailure(ctx, outcome.SessionID, err)
		return "", err
	}

	_, err = a.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		a.reportFailure(ctx, outcome.SessionID, err)
		return "", err
	}

	observability.ObserveArchiveUpload("ok")
	if a.Logger != nil {
		a.Logger.InfoContext(ctx, "session transcript archived",
			slog.String("session_id", outcome.SessionID),
			slog.String("key", key),
			slog.Int("attempts", len(outcome.Attempts)),
		)
	}
	return key, nil
}

func (a *Archiver) reportFailure(ctx context.Context, sessionID string, err error) {
	observability.ObserveArchiveUpload("error")
	if a.Logger != nil {
		a.Logger.ErrorContext(ctx, "session transcript archive failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
}
