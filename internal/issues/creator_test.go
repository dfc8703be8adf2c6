package issues

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

type flakyCreator struct {
	failTitles map[string]bool
	created    []Proposal
}

func (c *flakyCreator) Create(_ context.Context, proposal Proposal) error {
	if c.failTitles[proposal.Title] {
		return errors.New("upstream unavailable")
	}
	c.created = append(c.created, proposal)
	return nil
}

func TestPromote_RecordsFingerprintsAndCommits(t *testing.T) {
	t.Parallel()

	engine := similarity.NewEngine(similarity.Config{}, nil, zerolog.Nop())
	ledger := store.NewMemory()
	creator := &flakyCreator{}

	topic := issueCluster()
	created, err := Promote(context.Background(), creator, engine, ledger, []model.TopicCluster{topic}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if created != 1 || len(creator.created) != 1 {
		t.Fatalf("expected one created issue, got %d", created)
	}

	fp := engine.Fingerprint(topic.Representative.Article)
	record, ok := ledger.Lookup(context.Background(), fp)
	if !ok {
		t.Fatalf("expected representative fingerprint recorded")
	}
	if record.ArticleID != topic.Representative.Article.ID {
		t.Fatalf("unexpected ledger article id: %s", record.ArticleID)
	}
}

func TestPromote_FailedCreationSkipsFingerprint(t *testing.T) {
	t.Parallel()

	engine := similarity.NewEngine(similarity.Config{}, nil, zerolog.Nop())
	ledger := store.NewMemory()

	topic := issueCluster()
	creator := &flakyCreator{failTitles: map[string]bool{Title(topic): true}}

	created, err := Promote(context.Background(), creator, engine, ledger, []model.TopicCluster{topic}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no created issues, got %d", created)
	}
	if ledger.Len() != 0 {
		t.Fatalf("failed creation must not record a fingerprint, ledger has %d", ledger.Len())
	}
}

func TestLogCreator(t *testing.T) {
	t.Parallel()

	creator := NewLogCreator(zerolog.Nop())
	if err := creator.Create(context.Background(), FromCluster(issueCluster())); err != nil {
		t.Fatalf("log creator must never fail: %v", err)
	}
}
