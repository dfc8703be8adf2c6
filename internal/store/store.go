// Package store persists the ledger of previously seen content
// fingerprints used to suppress duplicate topics across pipeline runs.
package store

import (
	"context"
	"time"
)

// SeenRecord is one ledger entry for a promoted fingerprint.
type SeenRecord struct {
	Fingerprint string    `json:"fingerprint"`
	ArticleID   string    `json:"article_id"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// Store is the cross-run fingerprint ledger. Lookup never fails for a
// missing key; read errors are logged by implementations and degrade to
// "not found" because dedup history is a best-effort optimization, not a
// correctness requirement. Record buffers an entry in memory; nothing is
// durable until Commit, which writes the whole batch or nothing. Prune
// runs between passes, never during one.
type Store interface {
	Lookup(ctx context.Context, fingerprint string) (SeenRecord, bool)
	Record(fingerprint, articleID string, seenAt time.Time)
	Prune(ctx context.Context, olderThan time.Time) (int, error)
	Commit(ctx context.Context) error
}
