package issues

import (
	"context"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/globaltime"
	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

// Creator delivers one proposal to wherever draft issues live.
type Creator interface {
	Create(ctx context.Context, proposal Proposal) error
}

// LogCreator writes proposals to the log instead of creating anything.
// It backs dry runs and local development.
type LogCreator struct {
	logger zerolog.Logger
}

func NewLogCreator(logger zerolog.Logger) *LogCreator {
	return &LogCreator{logger: logger}
}

func (c *LogCreator) Create(_ context.Context, proposal Proposal) error {
	c.logger.Info().
		Str("title", proposal.Title).
		Strs("labels", proposal.Labels).
		Int("body_bytes", len(proposal.Body)).
		Msg("dry run: issue proposal")
	return nil
}

// Promote creates an issue per cluster, records each successfully
// proposed representative fingerprint, and commits the ledger once at
// the end. A failed creation skips that cluster's fingerprint so the
// story stays eligible next pass.
func Promote(
	ctx context.Context,
	creator Creator,
	engine *similarity.Engine,
	ledger store.Store,
	clusters []model.TopicCluster,
	logger zerolog.Logger,
) (int, error) {
	now := globaltime.UTC()

	created := 0
	for _, topic := range clusters {
		proposal := FromCluster(topic)
		if err := creator.Create(ctx, proposal); err != nil {
			logger.Warn().Err(err).
				Str("article_id", topic.Representative.Article.ID).
				Msg("issue creation failed; fingerprint not recorded")
			continue
		}
		created++
		ledger.Record(engine.Fingerprint(topic.Representative.Article), topic.Representative.Article.ID, now)
	}

	if err := ledger.Commit(ctx); err != nil {
		return created, err
	}
	return created, nil
}
