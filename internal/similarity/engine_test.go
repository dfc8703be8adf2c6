package similarity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

type stubEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vec, ok := s.vectors[text]
	if !ok {
		return []float64{1, 0, 0}, nil
	}
	return vec, nil
}

func testArticle(id, title, body, rawURL string) model.Article {
	return model.Article{
		ID:          id,
		Title:       title,
		Body:        body,
		URL:         rawURL,
		Source:      "devblog",
		Authority:   0.7,
		PublishedAt: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestIsDuplicate_ExactContent(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{}, nil, zerolog.Nop())
	a := testArticle("a-1", "Postgres 18 released", "Major version with async IO.", "https://pg.example.com/18")
	b := testArticle("b-1", "Postgres 18  released", "Major version with async IO.", "https://other.example.com/pg18")

	if !engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("expected exact content match to be a duplicate")
	}
	if got := engine.Similarity(context.Background(), a, b); got != 1.0 {
		t.Fatalf("expected similarity 1.0 for exact match, got %f", got)
	}
}

func TestIsDuplicate_ExactURLDifferentBodies(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{}, nil, zerolog.Nop())
	a := testArticle("a-2", "Kafka tiered storage GA", "Short teaser.", "https://example.com/kafka?utm_source=rss")
	b := testArticle("b-2", "Apache Kafka ships tiered storage", "Full writeup with benchmarks.", "https://example.com/kafka")

	if !engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("expected normalized URL equality to be a duplicate")
	}
}

func TestIsDuplicate_MissingURLsNeverExactMatch(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{}, nil, zerolog.Nop())
	a := testArticle("a-3", "SRE hiring trends", "Survey of 400 teams.", "")
	b := testArticle("b-3", "Rust in the kernel", "Status update.", "")

	if engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("two empty URLs must not count as an exact match")
	}
}

func TestIsDuplicate_FuzzyTitleTier(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{TitleThreshold: 0.85}, nil, zerolog.Nop())
	a := testArticle("a-4", "CDC issues new guidance for hospitals", "First report.", "https://a.example.com/1")
	b := testArticle("b-4", "CDC issues new guidance for hospitals!", "Second report with extra detail.", "https://b.example.com/2")

	if !engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("expected near-identical titles to clear the fuzzy tier")
	}

	c := testArticle("c-4", "Hospital funding bill passes", "Unrelated story.", "https://c.example.com/3")
	if engine.IsDuplicate(context.Background(), a, c) {
		t.Fatalf("expected unrelated titles to stay distinct")
	}
}

func TestSimilarity_FuzzyVerdictStandsWithoutSemantic(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{}
	engine := NewEngine(Config{SemanticEnabled: true}, embedder, zerolog.Nop())
	a := testArticle("a-5", "CDC issues new guidance for hospitals", "Body one.", "https://a.example.com/1")
	b := testArticle("b-5", "CDC issues new guidance for hospitals!", "Body two.", "https://b.example.com/2")

	score := engine.Similarity(context.Background(), a, b)
	if score < 0.85 || score > 1 {
		t.Fatalf("expected fuzzy score at or above threshold, got %f", score)
	}
	if embedder.calls != 0 {
		t.Fatalf("semantic tier must not run when the fuzzy verdict stands, got %d calls", embedder.calls)
	}
}

func TestSemanticTier_DegradesOnEmbedderFailure(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{err: errors.New("connection refused")}
	engine := NewEngine(Config{SemanticEnabled: true}, embedder, zerolog.Nop())
	a := testArticle("a-6", "Vault rotates secrets automatically", "Hashicorp announcement.", "https://a.example.com/1")
	b := testArticle("b-6", "Secret rotation lands in Vault", "Coverage of the same feature.", "https://b.example.com/2")

	if engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("with semantic tier down the fuzzy verdict must stand")
	}

	// Subsequent comparisons must not retry the failed capability.
	callsAfterFirst := embedder.calls
	engine.IsDuplicate(context.Background(), a, b)
	if embedder.calls != callsAfterFirst {
		t.Fatalf("expected no further embed calls after degradation, got %d then %d", callsAfterFirst, embedder.calls)
	}
}

func TestSemanticTier_CatchesRewordedTitles(t *testing.T) {
	t.Parallel()

	embedder := &stubEmbedder{vectors: map[string][]float64{}}
	a := testArticle("a-7", "OpenTelemetry reaches GA for profiling", "Profiling signal is stable.", "https://a.example.com/1")
	b := testArticle("b-7", "Continuous profiling now stable in OTel", "The profiling signal graduated.", "https://b.example.com/2")
	embedder.vectors[embeddingInput(a)] = []float64{0.9, 0.1, 0}
	embedder.vectors[embeddingInput(b)] = []float64{0.88, 0.12, 0}

	engine := NewEngine(Config{SemanticEnabled: true}, embedder, zerolog.Nop())
	if !engine.IsDuplicate(context.Background(), a, b) {
		t.Fatalf("expected high-cosine pair to be a duplicate via the semantic tier")
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{}, nil, zerolog.Nop())
	a := testArticle("a-8", "Alpha", "one", "https://a.example.com/1")
	b := testArticle("b-8", "Omega", "two", "https://b.example.com/2")

	score := engine.Similarity(context.Background(), a, b)
	if score < 0 || score > 1 {
		t.Fatalf("similarity out of bounds: %f", score)
	}
}
