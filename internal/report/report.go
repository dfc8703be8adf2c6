// Package report renders the monthly situational-analysis document from
// a ranked cluster list. The report always covers the full ranking, not
// the truncated issue hand-off.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"horse.fit/techbrief/internal/archive"
	"horse.fit/techbrief/internal/model"
)

// Writer renders and stores situational-analysis markdown files under a
// base directory, one per calendar month.
type Writer struct {
	baseDir      string
	horizonWeeks int
}

func NewWriter(baseDir string, horizonWeeks int) *Writer {
	return &Writer{baseDir: baseDir, horizonWeeks: horizonWeeks}
}

// Render produces the markdown document for a ranked cluster list.
func (w *Writer) Render(clusters []model.TopicCluster, now time.Time) string {
	now = now.UTC()

	var b strings.Builder
	fmt.Fprintf(&b, "# Situational Analysis - %s %d\n\n", now.Month(), now.Year())
	fmt.Fprintf(&b, "Planning horizon: %d weeks\n\n", w.horizonWeeks)

	b.WriteString("| Rank | Score | Category | Title | Source |\n")
	b.WriteString("| ---- | -----:| -------- | ----- | ------ |\n")
	for i, topic := range clusters {
		article := topic.Representative.Article
		title := article.Title
		if article.URL != "" {
			title = fmt.Sprintf("[%s](%s)", article.Title, article.URL)
		}
		category := string(topic.Category())
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(&b, "| %d | %.2f | %s | %s | %s |\n",
			i+1, topic.Score(), category, title, article.Source)
	}

	b.WriteString("\n## Rationale\n")
	for i, topic := range clusters {
		fmt.Fprintf(&b, "- %d. %s: %s\n",
			i+1, topic.Representative.Article.Title, topic.Representative.Breakdown.Rationale())
		if size := topic.Size(); size > 1 {
			fmt.Fprintf(&b, "  (%d related articles grouped)\n", size-1)
		}
	}

	b.WriteString("\n## Recommendations\n")
	b.WriteString(recommendation(clusters))
	b.WriteString("\n")
	return b.String()
}

// Write renders the report and stores it at
// baseDir/situational-YYYY-MM.md, returning the file path.
func (w *Writer) Write(clusters []model.TopicCluster, now time.Time) (string, error) {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := w.PathForMonth(now)
	if err := os.WriteFile(path, []byte(w.Render(clusters, now)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// PathForMonth returns the report file path for the month of t.
func (w *Writer) PathForMonth(t time.Time) string {
	return filepath.Join(w.baseDir, "situational-"+archive.MonthSlug(t.UTC())+".md")
}

// Latest returns the path of the most recent report on disk.
func (w *Writer) Latest() (string, bool) {
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "situational-") || !strings.HasSuffix(name, ".md") {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(w.baseDir, names[len(names)-1]), true
}

// recommendation names the category with the thinnest coverage so the
// next month's sourcing can compensate.
func recommendation(clusters []model.TopicCluster) string {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, topic := range clusters {
		counts[topic.Category()]++
	}

	thinnest := model.Categories[0]
	for _, category := range model.Categories[1:] {
		if counts[category] < counts[thinnest] {
			thinnest = category
		}
	}
	if counts[thinnest] == 0 {
		return fmt.Sprintf("No %s coverage this month; source candidates for that category next.", thinnest)
	}
	return "Aim for balanced coverage across Architecture/Infra, DevOps, Agile, and Leadership over the next month."
}
