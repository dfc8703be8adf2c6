package issues

import (
	"strings"
	"testing"
	"time"

	"horse.fit/techbrief/internal/model"
)

func issueCluster() model.TopicCluster {
	rep := model.ScoredArticle{
		Article: model.Article{
			ID:          "a-1",
			Title:       "Kafka tiered storage ships",
			Body:        "Full announcement.",
			URL:         "https://a.example.com/kafka",
			Source:      "confluent-blog",
			Authority:   0.8,
			Category:    model.CategoryDevOps,
			PublishedAt: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		},
		Score:     0.81,
		Breakdown: model.SignalBreakdown{Freshness: 0.9, Authority: 0.8, Novelty: 1, Balance: 0.5},
	}
	member := model.ScoredArticle{
		Article: model.Article{
			ID:     "a-2",
			Title:  "Apache Kafka ships tiered storage",
			URL:    "https://b.example.com/kafka",
			Source: "infoq",
		},
		Score: 0.6,
	}
	return model.TopicCluster{ID: 1, Representative: rep, Members: []model.ScoredArticle{member}}
}

func TestTitle_SingleAndGrouped(t *testing.T) {
	t.Parallel()

	topic := issueCluster()
	if got := Title(topic); got != "[DevOps] Topic roundup: Kafka tiered storage ships; Apache Kafka ships tiered storage" {
		t.Fatalf("unexpected grouped title: %q", got)
	}

	topic.Members = nil
	if got := Title(topic); got != "[DevOps] Kafka tiered storage ships" {
		t.Fatalf("unexpected single title: %q", got)
	}
}

func TestTitle_SummaryCategoryOverride(t *testing.T) {
	t.Parallel()

	topic := issueCluster()
	topic.Summary = &model.Summary{Category: model.CategoryArchitecture, Confidence: 0.7}
	if got := Title(topic); !strings.HasPrefix(got, "[Architecture/Infra]") {
		t.Fatalf("expected classified category in title, got %q", got)
	}
}

func TestLabels(t *testing.T) {
	t.Parallel()

	labels := Labels(issueCluster())
	if len(labels) != 2 || labels[0] != "draft" || labels[1] != "devops" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestBody_Sections(t *testing.T) {
	t.Parallel()

	topic := issueCluster()
	topic.Summary = &model.Summary{
		Category:      model.CategoryDevOps,
		Confidence:    0.9,
		TLDR:          "Tiered storage is GA.",
		ImpactBullets: []string{"Cheaper long retention", "Simpler capacity planning"},
	}

	body := Body(topic)
	for _, want := range []string{
		"### Summary",
		"Tiered storage is GA.",
		"- Cheaper long retention",
		"[Kafka tiered storage ships](https://a.example.com/kafka), confluent-blog",
		"[Apache Kafka ships tiered storage](https://b.example.com/kafka), infoq",
		"Score 0.81",
		"freshness=0.90, authority=0.80, novelty=1.00, balance=0.50",
		"Labels: draft, devops",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBody_PendingSummaryPlaceholders(t *testing.T) {
	t.Parallel()

	body := Body(issueCluster())
	if !strings.Contains(body, "(summary pending)") {
		t.Fatalf("expected summary placeholder, got:\n%s", body)
	}
	if !strings.Contains(body, "- TBD") {
		t.Fatalf("expected impact placeholder, got:\n%s", body)
	}
}
