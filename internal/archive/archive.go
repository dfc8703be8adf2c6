// Package archive stores processed articles grouped by month in JSON
// files under a base directory. The archive feeds the novelty signal
// with prior-months history and the monthly report with its input.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

// Archive is a JSON file-backed monthly article store. Files live at
// baseDir/YYYY-MM.json; writes are idempotent and merge by URL.
type Archive struct {
	baseDir string
	logger  zerolog.Logger
}

type archivedArticle struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	Body        string  `json:"body,omitempty"`
	Authority   float64 `json:"authority"`
	Category    string  `json:"category,omitempty"`
	Language    string  `json:"language,omitempty"`
	PublishedAt string  `json:"published_at"`
}

type monthPayload struct {
	Month    string            `json:"month"`
	Count    int               `json:"count"`
	Articles []archivedArticle `json:"articles"`
}

func New(baseDir string, logger zerolog.Logger) (*Archive, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{baseDir: baseDir, logger: logger}, nil
}

// MonthSlug formats the canonical YYYY-MM archive key.
func MonthSlug(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), t.Month())
}

// Store merges articles into the month file. Existing entries with the
// same URL are replaced; a corrupt file is recreated with a warning.
func (a *Archive) Store(articles []model.Article, monthSlug string) (string, error) {
	path := a.fileForMonth(monthSlug)

	existing := make(map[string]archivedArticle)
	order := make([]string, 0)
	if payload, err := a.readMonthFile(path); err == nil {
		for _, row := range payload.Articles {
			key := archiveKey(row.URL, row.ID)
			if _, ok := existing[key]; !ok {
				order = append(order, key)
			}
			existing[key] = row
		}
	}

	for _, article := range articles {
		row := toArchived(article)
		key := archiveKey(row.URL, row.ID)
		if _, ok := existing[key]; !ok {
			order = append(order, key)
		}
		existing[key] = row
	}

	payload := monthPayload{
		Month:    monthSlug,
		Count:    len(existing),
		Articles: make([]archivedArticle, 0, len(existing)),
	}
	for _, key := range order {
		payload.Articles = append(payload.Articles, existing[key])
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal archive month %s: %w", monthSlug, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write archive month %s: %w", monthSlug, err)
	}
	return path, nil
}

// LoadMonth returns the stored articles for one month, or nothing when
// the file is absent or unreadable.
func (a *Archive) LoadMonth(monthSlug string) []model.Article {
	payload, err := a.readMonthFile(a.fileForMonth(monthSlug))
	if err != nil {
		return nil
	}

	articles := make([]model.Article, 0, len(payload.Articles))
	for _, row := range payload.Articles {
		articles = append(articles, fromArchived(row))
	}
	return articles
}

// LoadHistory collects the articles of the `months` calendar months
// preceding (and excluding) the month of now. It backs the novelty
// signal's recent-history window.
func (a *Archive) LoadHistory(now time.Time, months int) []model.Article {
	var history []model.Article
	cursor := now.UTC()
	for i := 1; i <= months; i++ {
		slug := MonthSlug(cursor.AddDate(0, -i, 0))
		history = append(history, a.LoadMonth(slug)...)
	}
	return history
}

// List returns the month slugs present in the archive, sorted ascending.
func (a *Archive) List() []string {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return nil
	}
	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(slugs)
	return slugs
}

func (a *Archive) readMonthFile(path string) (monthPayload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn().Err(err).Str("path", path).Msg("archive file unreadable; recreating")
		}
		return monthPayload{}, err
	}

	var payload monthPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("archive file corrupt; recreating")
		return monthPayload{}, err
	}
	return payload, nil
}

func (a *Archive) fileForMonth(monthSlug string) string {
	return filepath.Join(a.baseDir, monthSlug+".json")
}

func archiveKey(url, id string) string {
	if url != "" {
		return url
	}
	return id
}

func toArchived(article model.Article) archivedArticle {
	return archivedArticle{
		ID:          article.ID,
		Title:       article.Title,
		URL:         article.URL,
		Source:      article.Source,
		Body:        article.Body,
		Authority:   article.Authority,
		Category:    string(article.Category),
		Language:    article.Language,
		PublishedAt: article.PublishedAt.UTC().Format(time.RFC3339),
	}
}

func fromArchived(row archivedArticle) model.Article {
	publishedAt, _ := time.Parse(time.RFC3339, row.PublishedAt)
	category, _ := model.ParseCategory(row.Category)
	if row.Category == "" {
		category = ""
	}
	return model.Article{
		ID:          row.ID,
		Title:       row.Title,
		Body:        row.Body,
		URL:         row.URL,
		Source:      row.Source,
		Authority:   row.Authority,
		Category:    category,
		Language:    row.Language,
		PublishedAt: publishedAt.UTC(),
	}
}
