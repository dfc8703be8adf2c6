package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the fixed classification taxonomy for ingested articles.
type Category string

const (
	CategoryAgile        Category = "Agile"
	CategoryDevOps       Category = "DevOps"
	CategoryArchitecture Category = "Architecture/Infra"
	CategoryLeadership   Category = "Leadership"
)

// Categories lists all valid categories in stable order.
var Categories = []Category{
	CategoryAgile,
	CategoryDevOps,
	CategoryArchitecture,
	CategoryLeadership,
}

// ParseCategory resolves a raw label to a known category. Unknown labels
// fall back to Architecture/Infra, mirroring the classification fallback
// used when an AI backend returns an out-of-taxonomy answer.
func ParseCategory(raw string) (Category, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c, true
		}
	}
	return CategoryArchitecture, false
}

// Article is one ingested, normalized unit of content. It is produced by
// the upstream normalization stage and consumed read-only by the engine;
// derived data (score, cluster) lives on wrapper types, never here.
type Article struct {
	ID          string
	Title       string
	Body        string
	URL         string
	Source      string
	Authority   float64
	Category    Category
	Language    string
	PublishedAt time.Time
}

// Validate reports whether the article carries every field the engine
// requires. The upstream stage is expected to reject these before they
// reach a pass; a failure here is skipped and reported, never fatal.
func (a Article) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("article is missing an id")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("article %s is missing a title", a.ID)
	}
	if strings.TrimSpace(a.Source) == "" {
		return fmt.Errorf("article %s is missing a source", a.ID)
	}
	if a.PublishedAt.IsZero() {
		return fmt.Errorf("article %s is missing a publication timestamp", a.ID)
	}
	if a.Authority < 0 || a.Authority > 1 {
		return fmt.Errorf("article %s has authority %f outside [0,1]", a.ID, a.Authority)
	}
	return nil
}

// SignalBreakdown records the individual [0,1] signals behind a score so
// ranking decisions stay explainable across reruns.
type SignalBreakdown struct {
	Freshness float64 `json:"freshness"`
	Authority float64 `json:"authority"`
	Novelty   float64 `json:"novelty"`
	Balance   float64 `json:"balance"`
}

// Rationale renders the breakdown in the fixed order used by reports.
func (b SignalBreakdown) Rationale() string {
	return fmt.Sprintf(
		"freshness=%.2f, authority=%.2f, novelty=%.2f, balance=%.2f",
		b.Freshness, b.Authority, b.Novelty, b.Balance,
	)
}

// ScoredArticle is an Article annotated with its priority score.
type ScoredArticle struct {
	Article   Article
	Score     float64
	Breakdown SignalBreakdown
}

// Less implements the deterministic ranking order: higher score first,
// with earlier publication winning ties so reruns reproduce identical
// output for identical input.
func (s ScoredArticle) Less(other ScoredArticle) bool {
	if s.Score != other.Score {
		return s.Score > other.Score
	}
	if !s.Article.PublishedAt.Equal(other.Article.PublishedAt) {
		return s.Article.PublishedAt.Before(other.Article.PublishedAt)
	}
	return s.Article.ID < other.Article.ID
}

// Summary is the classification/summarization capability output attached
// to a cluster representative.
type Summary struct {
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`
	TLDR          string   `json:"tldr"`
	ImpactBullets []string `json:"impact_bullets,omitempty"`
}

// TopicCluster groups scored articles judged to be the same underlying
// story. The aggregate score is the representative's score, not a sum, so
// many weak duplicates never outrank a single strong unique story.
type TopicCluster struct {
	ID             int
	Representative ScoredArticle
	Members        []ScoredArticle
	Summary        *Summary
}

// Score returns the cluster's aggregate score.
func (c TopicCluster) Score() float64 {
	return c.Representative.Score
}

// Category returns the cluster category, inherited from the representative
// unless a classification result overrides it.
func (c TopicCluster) Category() Category {
	if c.Summary != nil {
		return c.Summary.Category
	}
	return c.Representative.Article.Category
}

// Size counts all members including the representative.
func (c TopicCluster) Size() int {
	return 1 + len(c.Members)
}

// Less orders clusters by aggregate score with the same tie-break as
// ScoredArticle.Less.
func (c TopicCluster) Less(other TopicCluster) bool {
	return c.Representative.Less(other.Representative)
}
