// Package issues turns ranked topic clusters into draft issue proposals
// and records promoted fingerprints so the same story is not proposed
// again in a later pass.
package issues

import (
	"fmt"
	"strings"

	"horse.fit/techbrief/internal/model"
)

var categoryLabels = map[model.Category]string{
	model.CategoryAgile:        "agile",
	model.CategoryDevOps:       "devops",
	model.CategoryArchitecture: "architecture",
	model.CategoryLeadership:   "leadership",
}

// Proposal is one draft issue ready for a Creator.
type Proposal struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// Labels returns the label set for a cluster: always "draft" plus the
// cluster category.
func Labels(topic model.TopicCluster) []string {
	label, ok := categoryLabels[topic.Category()]
	if !ok {
		label = "uncategorized"
	}
	return []string{"draft", label}
}

// Title renders the issue title. Single-article clusters use the plain
// article title; grouped clusters carry a roundup prefix naming up to
// two additional member titles.
func Title(topic model.TopicCluster) string {
	category := topic.Category()
	if category == "" {
		category = "Uncategorized"
	}
	if len(topic.Members) == 0 {
		return fmt.Sprintf("[%s] %s", category, topic.Representative.Article.Title)
	}

	extra := make([]string, 0, 2)
	for _, member := range topic.Members {
		extra = append(extra, member.Article.Title)
		if len(extra) == 2 {
			break
		}
	}
	return fmt.Sprintf("[%s] Topic roundup: %s; %s",
		category, topic.Representative.Article.Title, strings.Join(extra, "; "))
}

// Body renders the markdown issue body with summary, impact, source
// links, and the score rationale.
func Body(topic model.TopicCluster) string {
	var b strings.Builder

	b.WriteString("### Summary\n\n")
	if topic.Summary != nil && topic.Summary.TLDR != "" {
		b.WriteString(topic.Summary.TLDR)
	} else {
		b.WriteString("(summary pending)")
	}
	b.WriteString("\n\n### Impact to teams\n\n")
	if topic.Summary != nil && len(topic.Summary.ImpactBullets) > 0 {
		for _, point := range topic.Summary.ImpactBullets {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	} else {
		b.WriteString("- TBD\n")
	}

	b.WriteString("\n### Sources\n\n")
	writeSourceLine(&b, topic.Representative)
	for _, member := range topic.Members {
		writeSourceLine(&b, member)
	}

	fmt.Fprintf(&b, "\n### Scoring\n\nScore %.2f (%s)\n",
		topic.Score(), topic.Representative.Breakdown.Rationale())

	fmt.Fprintf(&b, "\n---\nLabels: %s\n", strings.Join(Labels(topic), ", "))
	return b.String()
}

func writeSourceLine(b *strings.Builder, scored model.ScoredArticle) {
	article := scored.Article
	if article.URL != "" {
		fmt.Fprintf(b, "- [%s](%s), %s\n", article.Title, article.URL, article.Source)
		return
	}
	fmt.Fprintf(b, "- %s, %s\n", article.Title, article.Source)
}

// FromCluster builds the complete proposal for one cluster.
func FromCluster(topic model.TopicCluster) Proposal {
	return Proposal{
		Title:  Title(topic),
		Body:   Body(topic),
		Labels: Labels(topic),
	}
}
