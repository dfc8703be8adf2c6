package cluster

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

// FinalizeResult separates what survived from what was suppressed so the
// pass can report both.
type FinalizeResult struct {
	Ranked     []model.TopicCluster
	Suppressed int
	Merged     int
}

// Finalize runs the two dedup passes beyond greedy building: clusters
// whose representative fingerprint the ledger already knows are dropped
// entirely (a prior pass proposed that story), and clusters whose
// representatives are themselves duplicates are merged into the
// higher-scored one. Greedy order can miss such pairs; this pass is the
// accepted correction, not full transitive closure. The result is the
// final ranking.
func Finalize(
	ctx context.Context,
	engine *similarity.Engine,
	ledger store.Store,
	clusters []model.TopicCluster,
	logger zerolog.Logger,
) FinalizeResult {
	var result FinalizeResult

	survivors := make([]model.TopicCluster, 0, len(clusters))
	for _, topic := range clusters {
		fingerprint := engine.Fingerprint(topic.Representative.Article)
		if record, seen := ledger.Lookup(ctx, fingerprint); seen {
			result.Suppressed++
			logger.Debug().
				Str("article_id", topic.Representative.Article.ID).
				Str("prior_article_id", record.ArticleID).
				Time("first_seen", record.FirstSeen).
				Msg("cluster suppressed by fingerprint ledger")
			continue
		}
		survivors = append(survivors, topic)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Less(survivors[j])
	})

	merged := make([]model.TopicCluster, 0, len(survivors))
	absorbed := make([]bool, len(survivors))
	for i := range survivors {
		if absorbed[i] {
			continue
		}
		topic := survivors[i]
		for j := i + 1; j < len(survivors); j++ {
			if absorbed[j] {
				continue
			}
			if engine.IsDuplicate(ctx, topic.Representative.Article, survivors[j].Representative.Article) {
				topic.Members = append(topic.Members, survivors[j].Representative)
				topic.Members = append(topic.Members, survivors[j].Members...)
				absorbed[j] = true
				result.Merged++
			}
		}
		merged = append(merged, topic)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Less(merged[j])
	})
	result.Ranked = merged
	return result
}

// Truncate returns the top-n prefix handed to issue creation. The full
// ranked list stays available for the monthly report; truncation never
// affects reporting.
func Truncate(clusters []model.TopicCluster, n int) []model.TopicCluster {
	if n <= 0 || n >= len(clusters) {
		return clusters
	}
	return clusters[:n]
}
