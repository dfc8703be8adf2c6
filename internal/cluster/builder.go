// Package cluster groups scored, de-duplicated articles into topic
// clusters and produces the final ranked list.
package cluster

import (
	"context"
	"sort"

	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
)

// Build runs a single-pass greedy agglomeration over the batch. Articles
// are processed in descending score order; each unclustered article
// opens a cluster as its representative and absorbs every remaining
// unclustered article that matches it. The representative anchor means
// the article that ultimately surfaces is always the best-scoring member;
// which low-score duplicates get swept in only affects impact summaries,
// not ranking. O(n²) comparisons, acceptable for monthly-window batches.
func Build(ctx context.Context, engine *similarity.Engine, scored []model.ScoredArticle) []model.TopicCluster {
	ordered := make([]model.ScoredArticle, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Less(ordered[j])
	})

	clustered := make([]bool, len(ordered))
	clusters := make([]model.TopicCluster, 0, len(ordered))
	nextID := 1

	for i := range ordered {
		if clustered[i] {
			continue
		}
		clustered[i] = true
		topic := model.TopicCluster{
			ID:             nextID,
			Representative: ordered[i],
		}
		nextID++

		for j := i + 1; j < len(ordered); j++ {
			if clustered[j] {
				continue
			}
			if engine.IsDuplicate(ctx, topic.Representative.Article, ordered[j].Article) {
				topic.Members = append(topic.Members, ordered[j])
				clustered[j] = true
			}
		}
		clusters = append(clusters, topic)
	}
	return clusters
}
