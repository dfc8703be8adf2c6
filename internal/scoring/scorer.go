// Package scoring assigns each article a priority score from four
// independently bounded signals: freshness, source authority, novelty
// against recent history, and category balance within the batch.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
)

const (
	DefaultHorizonWeeks = 4
	weightSumTolerance  = 1e-9
	hoursPerWeek        = 7 * 24
)

// Weights distributes the four signals. The set must sum to 1.0 within
// floating-point tolerance; anything else is a configuration error and
// aborts the pass before any writes.
type Weights struct {
	Freshness float64
	Authority float64
	Novelty   float64
	Balance   float64
}

// DefaultWeights are the documented defaults.
var DefaultWeights = Weights{
	Freshness: 0.35,
	Authority: 0.20,
	Novelty:   0.30,
	Balance:   0.15,
}

func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"freshness": w.Freshness,
		"authority": w.Authority,
		"novelty":   w.Novelty,
		"balance":   w.Balance,
	} {
		if value < 0 {
			return fmt.Errorf("signal weight %s is negative: %f", name, value)
		}
	}
	sum := w.Freshness + w.Authority + w.Novelty + w.Balance
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("signal weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// Scorer computes per-article scores. It consults the similarity engine
// for the novelty signal.
type Scorer struct {
	weights      Weights
	horizonWeeks float64
	engine       *similarity.Engine
	logger       zerolog.Logger
}

func NewScorer(weights Weights, horizonWeeks int, engine *similarity.Engine, logger zerolog.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	return &Scorer{
		weights:      weights,
		horizonWeeks: float64(horizonWeeks),
		engine:       engine,
		logger:       logger,
	}, nil
}

// ScoreBatch scores every article in the batch. Freshness, authority,
// and novelty are pure per-article functions; the balance signal is
// recomputed incrementally while walking the batch in descending order
// of the other three signals, so underrepresented categories
// self-correct within a run. The result is sorted by final score with
// the deterministic tie-break (earlier publication wins).
func (s *Scorer) ScoreBatch(ctx context.Context, articles []model.Article, now time.Time, history []model.Article) []model.ScoredArticle {
	scored := make([]model.ScoredArticle, 0, len(articles))
	for _, article := range articles {
		breakdown := model.SignalBreakdown{
			Freshness: s.freshness(article.PublishedAt, now),
			Authority: clamp01(article.Authority),
			Novelty:   s.novelty(ctx, article, history),
		}
		scored = append(scored, model.ScoredArticle{Article: article, Breakdown: breakdown})
	}

	// Walk in base-signal order so the balance boost is deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		bi := s.baseScore(scored[i].Breakdown)
		bj := s.baseScore(scored[j].Breakdown)
		if bi != bj {
			return bi > bj
		}
		return scored[i].Less(scored[j])
	})

	categoryCounts := make(map[model.Category]int, len(model.Categories))
	processed := 0
	for i := range scored {
		scored[i].Breakdown.Balance = balanceSignal(categoryCounts[scored[i].Article.Category], processed)
		scored[i].Score = s.total(scored[i].Breakdown)
		categoryCounts[scored[i].Article.Category]++
		processed++
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Less(scored[j])
	})
	return scored
}

// freshness decays exponentially with a half-life of the configured
// horizon: 2^(-ageWeeks / horizonWeeks).
func (s *Scorer) freshness(publishedAt, now time.Time) float64 {
	ageHours := now.Sub(publishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	ageWeeks := ageHours / hoursPerWeek
	return clamp01(math.Exp2(-ageWeeks / s.horizonWeeks))
}

// novelty is 1 minus the maximum similarity against any article in the
// recent-history window; a story that already appeared scores near 0.
// The history window never contains the current batch, so every entry is
// a genuine prior appearance, including identical republications.
func (s *Scorer) novelty(ctx context.Context, article model.Article, history []model.Article) float64 {
	maxSim := 0.0
	for _, prior := range history {
		if sim := s.engine.Similarity(ctx, article, prior); sim > maxSim {
			maxSim = sim
			if maxSim >= 1 {
				break
			}
		}
	}
	return clamp01(1 - maxSim)
}

// balanceSignal boosts categories underrepresented so far:
// 1 - categoryCount/total. The first article of a run sees a full boost.
func balanceSignal(categoryCount, total int) float64 {
	if total == 0 {
		return 1
	}
	return clamp01(1 - float64(categoryCount)/float64(total))
}

func (s *Scorer) baseScore(b model.SignalBreakdown) float64 {
	return s.weights.Freshness*b.Freshness +
		s.weights.Authority*b.Authority +
		s.weights.Novelty*b.Novelty
}

func (s *Scorer) total(b model.SignalBreakdown) float64 {
	return clamp01(s.baseScore(b) + s.weights.Balance*b.Balance)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
