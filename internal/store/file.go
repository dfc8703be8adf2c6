package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileStore is a durable JSON-file fingerprint ledger. The file is read
// once at construction; an unreadable or corrupt file is surfaced as a
// warning and treated as an empty store. Writes are staged in memory and
// flushed atomically on Commit via a temp-file rename.
type FileStore struct {
	path   string
	logger zerolog.Logger

	mu      sync.RWMutex
	records map[string]SeenRecord
	dirty   bool
}

type filePayload struct {
	Records []SeenRecord `json:"records"`
}

// OpenFile loads the ledger at path, creating parent directories as
// needed.
func OpenFile(path string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		logger:  logger,
		records: make(map[string]SeenRecord),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		logger.Warn().Err(err).Str("path", path).Msg("fingerprint store unreadable; starting with empty ledger")
		return s, nil
	}

	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("fingerprint store corrupt; starting with empty ledger")
		return s, nil
	}
	for _, record := range payload.Records {
		if record.Fingerprint == "" {
			continue
		}
		s.records[record.Fingerprint] = record
	}
	return s, nil
}

func (s *FileStore) Lookup(_ context.Context, fingerprint string) (SeenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[fingerprint]
	return record, ok
}

// Record stages an entry. Recording an already-known fingerprint updates
// only its last-seen timestamp.
func (s *FileStore) Record(fingerprint, articleID string, seenAt time.Time) {
	if fingerprint == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[fingerprint]; ok {
		if seenAt.After(existing.LastSeen) {
			existing.LastSeen = seenAt
			s.records[fingerprint] = existing
			s.dirty = true
		}
		return
	}
	s.records[fingerprint] = SeenRecord{
		Fingerprint: fingerprint,
		ArticleID:   articleID,
		FirstSeen:   seenAt,
		LastSeen:    seenAt,
	}
	s.dirty = true
}

func (s *FileStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for fingerprint, record := range s.records {
		if record.LastSeen.Before(olderThan) {
			delete(s.records, fingerprint)
			pruned++
		}
	}
	if pruned > 0 {
		s.dirty = true
	}
	return pruned, nil
}

func (s *FileStore) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	payload := filePayload{Records: make([]SeenRecord, 0, len(s.records))}
	for _, record := range s.records {
		payload.Records = append(payload.Records, record)
	}
	sort.Slice(payload.Records, func(i, j int) bool {
		return payload.Records[i].Fingerprint < payload.Records[j].Fingerprint
	})

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fingerprint store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write fingerprint store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace fingerprint store: %w", err)
	}
	s.dirty = false
	return nil
}

// Len reports the number of ledger entries, staged or durable.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
