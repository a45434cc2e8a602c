package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

// TranscriptsPrefix is the object-store subtree holding session transcripts.
// The retention sweeper lists and deletes under this prefix only.
const TranscriptsPrefix = "transcripts"

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildTranscriptPath keys a session transcript by UTC day so downstream
// engines can prune partitions by date.
func BuildTranscriptPath(sessionID string, finishedAt time.Time) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}

	ts := finishedAt.UTC()
	return path.Join(
		TranscriptsPrefix,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("session-%s.parquet", sessionID),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
