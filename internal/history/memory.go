package history

import (
	"context"
	"sync"

	"github.com/sqlmend/sqlmend/internal/observability"
)

// MemoryStore is the in-process backend used by the dev and test profiles.
// Entries are kept oldest first; appends beyond the limit drop from the front.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = 1
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	observability.SetHistoryEntries(len(s.entries))
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listed := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		listed = append(listed, s.entries[i])
	}
	return listed, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	observability.SetHistoryEntries(0)
	return nil
}
