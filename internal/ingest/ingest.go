// Package ingest decodes article batches at the normalization-stage
// boundary and converts them into domain articles. A malformed record is
// skipped and reported; it never aborts the batch.
package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/globaltime"
	"horse.fit/techbrief/internal/langdetect"
	"horse.fit/techbrief/internal/model"
	payloadschema "horse.fit/techbrief/schema"
)

// Articles whose source carries no configured weight get the neutral
// default authority.
const DefaultAuthority = 0.6

// Batch is the wire envelope posted by the normalization stage.
type Batch struct {
	Articles []json.RawMessage `json:"articles"`
}

// Result reports what survived decoding.
type Result struct {
	Articles []model.Article
	Skipped  int
}

// DecodeBatch validates and converts a raw batch. Records failing schema
// validation, missing required fields, or carrying a future publication
// timestamp are dropped with a warning.
func DecodeBatch(raw []byte, logger zerolog.Logger) (Result, error) {
	var batch Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return Result{}, err
	}
	return DecodeItems(batch.Articles, logger), nil
}

// DecodeItems converts individual payloads, skipping malformed ones.
func DecodeItems(payloads []json.RawMessage, logger zerolog.Logger) Result {
	now := globaltime.UTC()

	var result Result
	for i, payload := range payloads {
		item, err := payloadschema.ValidateArticlePayload(payload)
		if err != nil {
			result.Skipped++
			logger.Warn().Err(err).Int("index", i).Msg("skipping malformed article payload")
			continue
		}

		article, err := toArticle(item, now)
		if err != nil {
			result.Skipped++
			logger.Warn().Err(err).Int("index", i).Str("article_id", item.ID).Msg("skipping rejected article")
			continue
		}
		result.Articles = append(result.Articles, article)
	}
	return result
}

func toArticle(item *payloadschema.ArticleItem, now time.Time) (model.Article, error) {
	publishedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(item.PublishedAt))
	if err != nil {
		return model.Article{}, err
	}
	publishedAt = publishedAt.UTC()
	if publishedAt.After(now) {
		return model.Article{}, errFuturePublication(item.ID, publishedAt, now)
	}

	article := model.Article{
		ID:          strings.TrimSpace(item.ID),
		Title:       strings.TrimSpace(item.Title),
		Source:      strings.TrimSpace(item.Source),
		Authority:   DefaultAuthority,
		PublishedAt: publishedAt,
	}
	if item.BodyText != nil {
		article.Body = strings.TrimSpace(*item.BodyText)
	}
	if item.URL != nil {
		article.URL = strings.TrimSpace(*item.URL)
	}
	if item.SourceWeight != nil {
		article.Authority = *item.SourceWeight
	}
	if item.Category != nil {
		if category, ok := model.ParseCategory(*item.Category); ok {
			article.Category = category
		}
	}
	if item.Language != nil {
		article.Language = langdetect.NormalizeCode(*item.Language)
	}
	if article.Language == "" {
		article.Language = langdetect.DetectISO6391(article.Title + " " + article.Body)
	}

	if err := article.Validate(); err != nil {
		return model.Article{}, err
	}
	return article, nil
}

type futurePublicationError struct {
	id          string
	publishedAt time.Time
	now         time.Time
}

func errFuturePublication(id string, publishedAt, now time.Time) error {
	return &futurePublicationError{id: id, publishedAt: publishedAt, now: now}
}

func (e *futurePublicationError) Error() string {
	return "article " + e.id + " has a future publication timestamp " +
		e.publishedAt.Format(time.RFC3339) + " (now " + e.now.Format(time.RFC3339) + ")"
}
