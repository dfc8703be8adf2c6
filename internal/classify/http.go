package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

const DefaultRequestTimeout = 60 * time.Second

// HTTPClassifier calls a JSON classification/summarization service.
type HTTPClassifier struct {
	endpoint       string
	requestTimeout time.Duration
	logger         zerolog.Logger
	client         *http.Client
}

type classifyRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type classifyResponse struct {
	Category      string   `json:"category"`
	Confidence    float64  `json:"confidence"`
	TLDR          string   `json:"tldr"`
	ImpactBullets []string `json:"impact_bullets"`
}

func NewHTTPClassifier(endpoint string, requestTimeout time.Duration, logger zerolog.Logger) *HTTPClassifier {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &HTTPClassifier{
		endpoint:       strings.TrimSpace(endpoint),
		requestTimeout: requestTimeout,
		logger:         logger,
		client:         http.DefaultClient,
	}
}

func (h *HTTPClassifier) ClassifyAndSummarize(ctx context.Context, article model.Article) (model.Summary, error) {
	if h.endpoint == "" {
		return model.Summary{}, fmt.Errorf("classifier endpoint is not configured")
	}

	payload := classifyRequest{
		Title: article.Title,
		Body:  truncateWords(article.Body, maxInputWords),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.Summary{}, fmt.Errorf("marshal classify request: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Summary{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return model.Summary{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Summary{}, fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Summary{}, fmt.Errorf("classify service status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed classifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return model.Summary{}, fmt.Errorf("decode classify response: %w", err)
	}

	summary := model.Summary{
		Category:      model.Category(parsed.Category),
		Confidence:    parsed.Confidence,
		TLDR:          parsed.TLDR,
		ImpactBullets: parsed.ImpactBullets,
	}
	return SanitizeSummary(summary, article.ID, h.logger), nil
}
