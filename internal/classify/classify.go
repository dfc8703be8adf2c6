// Package classify is the boundary to the external AI backend that
// produces category labels and summaries. The engine only calls this
// capability on cluster representatives; duplicates absorbed into a
// cluster never trigger a call.
package classify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

// The backend truncates long inputs itself, but trimming here keeps
// request payloads small for local backends.
const maxInputWords = 600

// Classifier produces a category, a short summary, and impact bullets
// for one article. Implementations live behind HTTP; failures are
// isolated per article by the caller.
type Classifier interface {
	ClassifyAndSummarize(ctx context.Context, article model.Article) (model.Summary, error)
}

// SanitizeSummary enforces the fixed taxonomy on a backend response. An
// out-of-taxonomy category falls back to Architecture/Infra with zero
// confidence, and confidence is clamped to [0,1].
func SanitizeSummary(raw model.Summary, articleID string, logger zerolog.Logger) model.Summary {
	category, known := model.ParseCategory(string(raw.Category))
	if !known {
		logger.Warn().
			Str("article_id", articleID).
			Str("category", string(raw.Category)).
			Msg("invalid category from classifier; defaulting to Architecture/Infra")
		raw.Confidence = 0
	}
	raw.Category = category

	switch {
	case raw.Confidence < 0:
		raw.Confidence = 0
	case raw.Confidence > 1:
		raw.Confidence = 1
	}

	bullets := raw.ImpactBullets[:0]
	for _, bullet := range raw.ImpactBullets {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(bullet), "-• "))
		if trimmed == "" {
			continue
		}
		bullets = append(bullets, trimmed)
	}
	raw.ImpactBullets = bullets
	raw.TLDR = strings.TrimSpace(raw.TLDR)
	return raw
}

func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}
