// Package engine orchestrates one processing pass: decode the article
// batch, score it against recent history, cluster duplicates, drop
// stories already proposed in prior passes, and classify what remains.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/archive"
	"horse.fit/techbrief/internal/classify"
	"horse.fit/techbrief/internal/cluster"
	"horse.fit/techbrief/internal/config"
	"horse.fit/techbrief/internal/globaltime"
	"horse.fit/techbrief/internal/ingest"
	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/scoring"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

// Engine wires the pass collaborators together. One Engine serves many
// passes; per-pass state lives in PassResult.
type Engine struct {
	cfg        *config.Config
	similarity *similarity.Engine
	scorer     *scoring.Scorer
	ledger     store.Store
	archive    *archive.Archive
	classifier classify.Classifier
	logger     zerolog.Logger
}

// PassResult carries everything a pass produced. Ranked is the full
// ordered cluster list for reporting; Proposed is the filtered and
// truncated prefix handed to issue creation.
type PassResult struct {
	Ranked   []model.TopicCluster
	Proposed []model.TopicCluster

	Received   int
	Skipped    int
	Suppressed int
	Merged     int
}

func New(
	cfg *config.Config,
	sim *similarity.Engine,
	ledger store.Store,
	arch *archive.Archive,
	classifier classify.Classifier,
	logger zerolog.Logger,
) (*Engine, error) {
	scorer, err := scoring.NewScorer(cfg.Weights(), cfg.HorizonWeeks, sim, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		similarity: sim,
		scorer:     scorer,
		ledger:     ledger,
		archive:    arch,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// RunRaw decodes a JSON batch payload and runs a pass over it.
func (e *Engine) RunRaw(ctx context.Context, payload []byte) (PassResult, error) {
	decoded, err := ingest.DecodeBatch(payload, e.logger)
	if err != nil {
		return PassResult{}, fmt.Errorf("decode batch: %w", err)
	}
	result, err := e.Run(ctx, decoded.Articles)
	if err != nil {
		return PassResult{}, err
	}
	result.Skipped += decoded.Skipped
	return result, nil
}

// Run executes one full pass over already-decoded articles and archives
// them for future novelty history.
func (e *Engine) Run(ctx context.Context, articles []model.Article) (PassResult, error) {
	now := globaltime.UTC()
	result := e.Rank(ctx, articles, now)

	if _, err := e.archive.Store(articles, archive.MonthSlug(now)); err != nil {
		e.logger.Warn().Err(err).Msg("archive write failed; novelty history will miss this batch")
	}

	return result, nil
}

// Rank scores, clusters, finalizes, and classifies one batch relative
// to now, without writing anything. The report command uses it to
// reprocess an archived month in place.
func (e *Engine) Rank(ctx context.Context, articles []model.Article, now time.Time) PassResult {
	result := PassResult{Received: len(articles)}

	// Ledger check runs per article before scoring: a story promoted by a
	// prior pass must not re-enter a cluster as a member of a near
	// duplicate either. Finalize re-checks the surviving representatives.
	fresh := make([]model.Article, 0, len(articles))
	for _, article := range articles {
		fingerprint := e.similarity.Fingerprint(article)
		if record, seen := e.ledger.Lookup(ctx, fingerprint); seen {
			result.Suppressed++
			e.logger.Debug().
				Str("article_id", article.ID).
				Str("prior_article_id", record.ArticleID).
				Msg("article suppressed by fingerprint ledger")
			continue
		}
		fresh = append(fresh, article)
	}

	history := e.archive.LoadHistory(now, e.cfg.HistoryMonths)
	e.logger.Info().
		Int("articles", len(fresh)).
		Int("suppressed", result.Suppressed).
		Int("history", len(history)).
		Msg("pass started")

	scored := e.scorer.ScoreBatch(ctx, fresh, now, history)
	clusters := cluster.Build(ctx, e.similarity, scored)

	finalized := cluster.Finalize(ctx, e.similarity, e.ledger, clusters, e.logger)
	result.Ranked = finalized.Ranked
	result.Suppressed += finalized.Suppressed
	result.Merged = finalized.Merged

	e.summarize(ctx, result.Ranked)
	result.Proposed = cluster.Truncate(e.aboveMinScore(result.Ranked), e.cfg.TopN)

	e.logger.Info().
		Int("clusters", len(result.Ranked)).
		Int("proposed", len(result.Proposed)).
		Int("suppressed", result.Suppressed).
		Int("merged", result.Merged).
		Msg("pass finished")
	return result
}

// summarize classifies each surviving representative. A classifier
// failure downgrades that one cluster to its heuristic category instead
// of failing the pass.
func (e *Engine) summarize(ctx context.Context, clusters []model.TopicCluster) {
	if e.classifier == nil {
		return
	}
	for i := range clusters {
		summary, err := e.classifier.ClassifyAndSummarize(ctx, clusters[i].Representative.Article)
		if err != nil {
			e.logger.Warn().Err(err).
				Str("article_id", clusters[i].Representative.Article.ID).
				Msg("classification failed; keeping heuristic category")
			continue
		}
		clusters[i].Summary = &summary
	}
}

func (e *Engine) aboveMinScore(clusters []model.TopicCluster) []model.TopicCluster {
	kept := make([]model.TopicCluster, 0, len(clusters))
	for _, topic := range clusters {
		if topic.Score() < e.cfg.MinScore {
			continue
		}
		kept = append(kept, topic)
	}
	return kept
}
