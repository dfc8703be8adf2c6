package classify

import (
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

func TestSanitizeSummary_ValidCategoryPassesThrough(t *testing.T) {
	t.Parallel()

	got := SanitizeSummary(model.Summary{
		Category:      model.CategoryAgile,
		Confidence:    0.82,
		TLDR:          "  Teams reduce sprint length.  ",
		ImpactBullets: []string{"- Shorter feedback loops", "• Less WIP", "   "},
	}, "article-1", zerolog.Nop())

	if got.Category != model.CategoryAgile || got.Confidence != 0.82 {
		t.Fatalf("valid summary must pass through, got %+v", got)
	}
	if got.TLDR != "Teams reduce sprint length." {
		t.Fatalf("expected trimmed TLDR, got %q", got.TLDR)
	}
	if len(got.ImpactBullets) != 2 || got.ImpactBullets[0] != "Shorter feedback loops" || got.ImpactBullets[1] != "Less WIP" {
		t.Fatalf("expected cleaned bullets, got %+v", got.ImpactBullets)
	}
}

func TestSanitizeSummary_UnknownCategoryFallsBack(t *testing.T) {
	t.Parallel()

	got := SanitizeSummary(model.Summary{
		Category:   "Security",
		Confidence: 0.95,
	}, "article-2", zerolog.Nop())

	if got.Category != model.CategoryArchitecture {
		t.Fatalf("expected Architecture/Infra fallback, got %s", got.Category)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected zero confidence on fallback, got %f", got.Confidence)
	}
}

func TestSanitizeSummary_ClampsConfidence(t *testing.T) {
	t.Parallel()

	high := SanitizeSummary(model.Summary{Category: model.CategoryDevOps, Confidence: 1.4}, "a", zerolog.Nop())
	if high.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %f", high.Confidence)
	}

	low := SanitizeSummary(model.Summary{Category: model.CategoryDevOps, Confidence: -0.2}, "a", zerolog.Nop())
	if low.Confidence != 0 {
		t.Fatalf("expected confidence clamped to 0, got %f", low.Confidence)
	}
}

func TestTruncateWords(t *testing.T) {
	t.Parallel()

	if got := truncateWords("one two three four", 2); got != "one two" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateWords("short text", 10); got != "short text" {
		t.Fatalf("short input must pass through, got %q", got)
	}
}
