package scoring

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
	"horse.fit/techbrief/internal/similarity"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	engine := similarity.NewEngine(similarity.Config{}, nil, zerolog.Nop())
	scorer, err := NewScorer(DefaultWeights, DefaultHorizonWeeks, engine, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return scorer
}

func scoringArticle(id, title string, category model.Category, authority float64, publishedAt time.Time) model.Article {
	return model.Article{
		ID:          id,
		Title:       title,
		Body:        "body of " + title,
		URL:         "https://example.com/" + id,
		Source:      "devblog",
		Authority:   authority,
		Category:    category,
		PublishedAt: publishedAt,
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultWeights.Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}

	bad := Weights{Freshness: 0.5, Authority: 0.2, Novelty: 0.2, Balance: 0.2}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for weights summing to 1.1")
	}

	negative := Weights{Freshness: -0.1, Authority: 0.5, Novelty: 0.4, Balance: 0.2}
	if err := negative.Validate(); err == nil {
		t.Fatalf("expected error for negative weight")
	}
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	t.Parallel()

	engine := similarity.NewEngine(similarity.Config{}, nil, zerolog.Nop())
	if _, err := NewScorer(Weights{Freshness: 1}, 4, engine, zerolog.Nop()); err != nil {
		t.Fatalf("weights {1,0,0,0} sum to 1 and must validate: %v", err)
	}
	if _, err := NewScorer(Weights{Freshness: 0.9}, 4, engine, zerolog.Nop()); err == nil {
		t.Fatalf("expected constructor to fail fast on invalid weights")
	}
}

func TestFreshness_HalfLifeDecay(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if got := scorer.freshness(now, now); got != 1 {
		t.Fatalf("expected freshness 1.0 at age zero, got %f", got)
	}

	fourWeeksOld := now.Add(-4 * 7 * 24 * time.Hour)
	if got := scorer.freshness(fourWeeksOld, now); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected freshness 0.5 at one horizon, got %f", got)
	}

	eightWeeksOld := now.Add(-8 * 7 * 24 * time.Hour)
	if got := scorer.freshness(eightWeeksOld, now); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected freshness 0.25 at two horizons, got %f", got)
	}

	future := now.Add(24 * time.Hour)
	if got := scorer.freshness(future, now); got != 1 {
		t.Fatalf("expected future timestamps clamped to age zero, got %f", got)
	}
}

func TestScoreBatch_Bounds(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	articles := []model.Article{
		scoringArticle("a-1", "Very fresh and authoritative", model.CategoryDevOps, 1.0, now),
		scoringArticle("a-2", "Old and weak", model.CategoryAgile, 0.0, now.AddDate(-1, 0, 0)),
		scoringArticle("a-3", "Out-of-range authority", model.CategoryLeadership, 1.7, now),
	}

	for _, sa := range scorer.ScoreBatch(context.Background(), articles, now, nil) {
		if sa.Score < 0 || sa.Score > 1 {
			t.Fatalf("score out of bounds for %s: %f", sa.Article.ID, sa.Score)
		}
		for name, v := range map[string]float64{
			"freshness": sa.Breakdown.Freshness,
			"authority": sa.Breakdown.Authority,
			"novelty":   sa.Breakdown.Novelty,
			"balance":   sa.Breakdown.Balance,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("signal %s out of bounds for %s: %f", name, sa.Article.ID, v)
			}
		}
	}
}

func TestScoreBatch_NoveltyPenalizesRepeats(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	repeat := scoringArticle("a-1", "Argo CD 3.0 release notes", model.CategoryDevOps, 0.8, now)
	fresh := scoringArticle("a-2", "Incident review culture at scale", model.CategoryLeadership, 0.8, now)
	history := []model.Article{
		scoringArticle("h-1", "Argo CD 3.0 release notes", model.CategoryDevOps, 0.8, now.AddDate(0, -1, 0)),
	}
	// History entry carries the repeat's content so the exact tier fires.
	history[0].Body = repeat.Body
	history[0].URL = repeat.URL

	scored := scorer.ScoreBatch(context.Background(), []model.Article{repeat, fresh}, now, history)
	byID := make(map[string]model.ScoredArticle, len(scored))
	for _, sa := range scored {
		byID[sa.Article.ID] = sa
	}

	if got := byID["a-1"].Breakdown.Novelty; got != 0 {
		t.Fatalf("expected zero novelty for a story already in history, got %f", got)
	}
	if got := byID["a-2"].Breakdown.Novelty; got < 0.9 {
		t.Fatalf("expected near-full novelty for an unseen story, got %f", got)
	}
}

func TestScoreBatch_NoveltyZeroForRepublishedStory(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	// Same article id in the archive: the story ran last month and was
	// republished unchanged. It must still count as a repeat.
	republished := scoringArticle("a-1", "Argo CD 3.0 release notes", model.CategoryDevOps, 0.8, now)
	archived := republished
	archived.PublishedAt = now.AddDate(0, -1, 0)

	scored := scorer.ScoreBatch(context.Background(), []model.Article{republished}, now, []model.Article{archived})
	if got := scored[0].Breakdown.Novelty; got != 0 {
		t.Fatalf("expected zero novelty for a republished story, got %f", got)
	}
}

func TestScoreBatch_BalanceConvergence(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	var articles []model.Article
	for i := 0; i < 10; i++ {
		articles = append(articles, scoringArticle(
			fmt.Sprintf("agile-%02d", i),
			fmt.Sprintf("Sprint planning pattern number %d with distinct wording", i),
			model.CategoryAgile,
			0.8,
			now.Add(-time.Duration(i)*time.Hour),
		))
	}
	lone := scoringArticle("lead-1", "Engineering manager onboarding guide", model.CategoryLeadership, 0.8, now.Add(-5*time.Hour))
	articles = append(articles, lone)

	scored := scorer.ScoreBatch(context.Background(), articles, now, nil)

	var loneBalance float64
	var agileBalances []float64
	for _, sa := range scored {
		if sa.Article.ID == "lead-1" {
			loneBalance = sa.Breakdown.Balance
			continue
		}
		agileBalances = append(agileBalances, sa.Breakdown.Balance)
	}

	// The overrepresented category converges downward while the lone
	// article of an untouched category keeps a high boost.
	lastAgile := agileBalances[len(agileBalances)-1]
	if lastAgile > 0.2 {
		t.Fatalf("expected late Agile balance to converge toward zero, got %f", lastAgile)
	}
	if loneBalance < 0.5 {
		t.Fatalf("expected lone Leadership article to keep a balance boost, got %f", loneBalance)
	}
}

func TestScoreBatch_Deterministic(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	articles := []model.Article{
		scoringArticle("a-1", "Platform engineering maturity model", model.CategoryArchitecture, 0.9, now.Add(-48*time.Hour)),
		scoringArticle("a-2", "Retrospectives that actually change things", model.CategoryAgile, 0.7, now.Add(-24*time.Hour)),
		scoringArticle("a-3", "Postmortem culture field guide", model.CategoryLeadership, 0.8, now.Add(-72*time.Hour)),
	}

	first := scorer.ScoreBatch(context.Background(), articles, now, nil)
	second := scorer.ScoreBatch(context.Background(), articles, now, nil)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Article.ID != second[i].Article.ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].Article.ID, second[i].Article.ID)
		}
		if first[i].Score != second[i].Score {
			t.Fatalf("score differs for %s: %f vs %f", first[i].Article.ID, first[i].Score, second[i].Score)
		}
	}
}

func TestScoreBatch_TieBreakIsStable(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	publishedAt := now.Add(-26 * time.Hour)

	// Identical signals all around: the balance walk and the final sort
	// must both fall back to the ID tie-break, so input order is
	// irrelevant.
	a := scoringArticle("a-article", "Completely unrelated first topic", model.CategoryDevOps, 0.8, publishedAt)
	b := scoringArticle("b-article", "Entirely different second subject", model.CategoryDevOps, 0.8, publishedAt)
	c := scoringArticle("c-article", "Third distinct theme altogether", model.CategoryDevOps, 0.8, publishedAt)

	scored := scorer.ScoreBatch(context.Background(), []model.Article{c, a, b}, now, nil)

	// The balance walk visits a first (full boost), so a outranks the
	// rest; b and c share a score and order by ID.
	wantOrder := []string{"a-article", "b-article", "c-article"}
	for i, want := range wantOrder {
		if scored[i].Article.ID != want {
			t.Fatalf("position %d: got %s want %s", i, scored[i].Article.ID, want)
		}
	}
}
