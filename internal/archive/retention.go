package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlmend/sqlmend/internal/observability"
	"github.com/sqlmend/sqlmend/internal/storage"
)

const (
	defaultRetentionAge  = 720 * time.Hour
	defaultSweepInterval = time.Hour
)

// RetentionConfig bounds how long archived transcripts are kept.
type RetentionConfig struct {
	RetentionAge  time.Duration
	SweepInterval time.Duration
}

// RetentionService deletes transcript objects older than the retention age.
type RetentionService struct {
	Store  storage.ObjectStore
	Config RetentionConfig
	Logger *slog.Logger
	Clock  func() time.Time
}

func (s *RetentionService) ensureDefaults() {
	if s.Config.RetentionAge <= 0 {
		s.Config.RetentionAge = defaultRetentionAge
	}
	if s.Config.SweepInterval <= 0 {
		s.Config.SweepInterval = defaultSweepInterval
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
}

type RetentionSummary struct {
	ObjectsScanned int `json:"objects_scanned"`
	ObjectsDeleted int `json:"objects_deleted"`
	Failures       int `json:"failures"`
}

func (s *RetentionService) Run(ctx context.Context) error {
	s.ensureDefaults()

	sweepTicker := time.NewTicker(s.Config.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sweepTicker.C:
			summary, err := s.RunSweepOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "transcript sweep failed", slog.Any("error", err), slog.Any("summary", summary))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "transcript sweep completed", slog.Any("summary", summary))
			}
		}
	}
}

// RunSweepOnce lists the transcript prefix and deletes every object whose
// last-modified timestamp predates the retention cutoff. Objects without a
// timestamp are left alone.
func (s *RetentionService) RunSweepOnce(ctx context.Context) (RetentionSummary, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return RetentionSummary{}, fmt.Errorf("object store is required")
	}

	cutoff := s.Clock().Add(-s.Config.RetentionAge)

	objects, err := s.Store.List(ctx, storage.TranscriptsPrefix)
	if err != nil {
		return RetentionSummary{}, fmt.Errorf("list transcripts: %w", err)
	}

	summary := RetentionSummary{}
	for _, object := range objects {
		summary.ObjectsScanned++
		if object.LastModified.IsZero() || !object.LastModified.Before(cutoff) {
			continue
		}
		if err := s.Store.Delete(ctx, object.Key); err != nil {
			summary.Failures++
			if s.Logger != nil {
				s.Logger.WarnContext(ctx, "transcript delete failed",
					slog.String("key", object.Key),
					slog.Any("error", err),
				)
			}
			continue
		}
		summary.ObjectsDeleted++
	}

	if summary.ObjectsDeleted > 0 {
		observability.AddArchiveSweepDeletes(summary.ObjectsDeleted)
	}
	if summary.Failures > 0 {
		return summary, fmt.Errorf("sweep encountered %d failure(s)", summary.Failures)
	}
	return summary, nil
}
