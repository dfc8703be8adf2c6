package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// FingerprintRecord maps the brief.fingerprints ledger table.
type FingerprintRecord struct {
	Fingerprint string    `gorm:"column:fingerprint;type:text;primaryKey"`
	ArticleID   string    `gorm:"column:article_id;type:text;not null"`
	FirstSeen   time.Time `gorm:"column:first_seen;type:timestamptz;not null"`
	LastSeen    time.Time `gorm:"column:last_seen;type:timestamptz;not null"`
}

func (FingerprintRecord) TableName() string { return "brief.fingerprints" }

// GormStore is a Postgres-backed fingerprint ledger. Reads go straight
// to the database; writes are staged and committed in one transaction so
// a failed pass leaves no partial fingerprints behind.
type GormStore struct {
	db     *gorm.DB
	logger zerolog.Logger

	mu     sync.Mutex
	staged []FingerprintRecord
}

// OpenGorm connects to Postgres and ensures the ledger table exists.
func OpenGorm(_ context.Context, databaseURL string, logger zerolog.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect fingerprint database: %w", err)
	}
	if err := db.AutoMigrate(&FingerprintRecord{}); err != nil {
		return nil, fmt.Errorf("migrate fingerprint table: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (s *GormStore) Lookup(ctx context.Context, fingerprint string) (SeenRecord, bool) {
	s.mu.Lock()
	for _, record := range s.staged {
		if record.Fingerprint == fingerprint {
			s.mu.Unlock()
			return SeenRecord(record), true
		}
	}
	s.mu.Unlock()

	var record FingerprintRecord
	err := s.db.WithContext(ctx).First(&record, "fingerprint = ?", fingerprint).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Msg("fingerprint lookup failed; treating as unseen")
		}
		return SeenRecord{}, false
	}
	return SeenRecord(record), true
}

func (s *GormStore) Record(fingerprint, articleID string, seenAt time.Time) {
	if fingerprint == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, FingerprintRecord{
		Fingerprint: fingerprint,
		ArticleID:   articleID,
		FirstSeen:   seenAt,
		LastSeen:    seenAt,
	})
}

func (s *GormStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result := s.db.WithContext(ctx).
		Where("last_seen < ?", olderThan).
		Delete(&FingerprintRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune fingerprints: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *GormStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	staged := s.staged
	s.staged = nil
	s.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range staged {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "fingerprint"}},
				DoUpdates: clause.Assignments(map[string]any{"last_seen": record.LastSeen}),
			}).Create(&record)
			if res.Error != nil {
				return fmt.Errorf("record fingerprint %s: %w", record.Fingerprint, res.Error)
			}
		}
		return nil
	})
	if err != nil {
		// Restage so a retried pass can still commit the batch.
		s.mu.Lock()
		s.staged = append(staged, s.staged...)
		s.mu.Unlock()
		return err
	}
	return nil
}
