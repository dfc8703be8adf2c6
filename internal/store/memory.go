package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ledger used by tests and by passes that
// run without configured persistence. Commit is a no-op.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]SeenRecord
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]SeenRecord)}
}

func (s *MemoryStore) Lookup(_ context.Context, fingerprint string) (SeenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[fingerprint]
	return record, ok
}

func (s *MemoryStore) Record(fingerprint, articleID string, seenAt time.Time) {
	if fingerprint == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[fingerprint]; ok {
		if seenAt.After(existing.LastSeen) {
			existing.LastSeen = seenAt
			s.records[fingerprint] = existing
		}
		return
	}
	s.records[fingerprint] = SeenRecord{
		Fingerprint: fingerprint,
		ArticleID:   articleID,
		FirstSeen:   seenAt,
		LastSeen:    seenAt,
	}
}

func (s *MemoryStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for fingerprint, record := range s.records {
		if record.LastSeen.Before(olderThan) {
			delete(s.records, fingerprint)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryStore) Commit(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
