package model

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"Agile", CategoryAgile, true},
		{"devops", CategoryDevOps, true},
		{" Architecture/Infra ", CategoryArchitecture, true},
		{"LEADERSHIP", CategoryLeadership, true},
		{"Security", CategoryArchitecture, false},
		{"", CategoryArchitecture, false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseCategory(%q) = (%s, %t), want (%s, %t)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestArticleValidate(t *testing.T) {
	t.Parallel()

	valid := Article{
		ID:          "a-1",
		Title:       "A title",
		Source:      "devblog",
		Authority:   0.5,
		PublishedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid article: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Article)
	}{
		{"missing id", func(a *Article) { a.ID = " " }},
		{"missing title", func(a *Article) { a.Title = "" }},
		{"missing source", func(a *Article) { a.Source = "" }},
		{"zero timestamp", func(a *Article) { a.PublishedAt = time.Time{} }},
		{"authority above one", func(a *Article) { a.Authority = 1.2 }},
	}
	for _, tc := range cases {
		article := valid
		tc.mutate(&article)
		if err := article.Validate(); err == nil {
			t.Fatalf("expected %s to fail validation", tc.name)
		}
	}
}

func TestScoredArticleLess(t *testing.T) {
	t.Parallel()

	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	higher := ScoredArticle{Article: Article{ID: "z", PublishedAt: late}, Score: 0.9}
	lower := ScoredArticle{Article: Article{ID: "a", PublishedAt: early}, Score: 0.5}
	if !higher.Less(lower) {
		t.Fatalf("higher score must rank first")
	}

	earlier := ScoredArticle{Article: Article{ID: "z", PublishedAt: early}, Score: 0.5}
	later := ScoredArticle{Article: Article{ID: "a", PublishedAt: late}, Score: 0.5}
	if !earlier.Less(later) {
		t.Fatalf("equal scores must rank earlier publication first")
	}

	idA := ScoredArticle{Article: Article{ID: "a", PublishedAt: early}, Score: 0.5}
	idB := ScoredArticle{Article: Article{ID: "b", PublishedAt: early}, Score: 0.5}
	if !idA.Less(idB) {
		t.Fatalf("full ties must rank by id")
	}
}

func TestTopicClusterAggregates(t *testing.T) {
	t.Parallel()

	rep := ScoredArticle{
		Article: Article{ID: "a-1", Category: CategoryDevOps, PublishedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		Score:   0.8,
	}
	member := ScoredArticle{Article: Article{ID: "a-2"}, Score: 0.99}
	topic := TopicCluster{ID: 1, Representative: rep, Members: []ScoredArticle{member}}

	// Aggregate score is the representative's, never a member sum or max.
	if got := topic.Score(); got != 0.8 {
		t.Fatalf("expected representative score, got %f", got)
	}
	if got := topic.Size(); got != 2 {
		t.Fatalf("expected size 2, got %d", got)
	}
	if got := topic.Category(); got != CategoryDevOps {
		t.Fatalf("expected representative category, got %s", got)
	}

	topic.Summary = &Summary{Category: CategoryLeadership}
	if got := topic.Category(); got != CategoryLeadership {
		t.Fatalf("expected summary category override, got %s", got)
	}
}
