// Package similarity decides whether two articles tell the same story.
// The decision cascades through tiers of increasing cost: exact content
// hash, fuzzy lexical comparison, and an optional semantic embedding
// tier. Cheap tiers short-circuit so the common case never pays for an
// embedding round-trip.
package similarity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/model"
)

const (
	DefaultTitleThreshold    = 0.85
	DefaultSemanticThreshold = 0.80
	DefaultSimhashMaxDist    = 3
)

// Config carries the tier thresholds. Thresholds are configuration, not
// constants, because acceptable duplicate tolerance varies by deployment.
type Config struct {
	TitleThreshold     float64
	SimhashMaxDistance int
	SemanticEnabled    bool
	SemanticThreshold  float64
}

func (c Config) withDefaults() Config {
	if c.TitleThreshold <= 0 {
		c.TitleThreshold = DefaultTitleThreshold
	}
	if c.SimhashMaxDistance <= 0 {
		c.SimhashMaxDistance = DefaultSimhashMaxDist
	}
	if c.SemanticThreshold <= 0 {
		c.SemanticThreshold = DefaultSemanticThreshold
	}
	return c
}

// Engine evaluates pairwise article similarity. It is safe for
// sequential use within a pass; every comparison is a pure function of
// its inputs plus the internal caches.
type Engine struct {
	cfg      Config
	embedder Embedder
	logger   zerolog.Logger

	mu           sync.Mutex
	fingerprints map[string]string
	simhashes    map[string]simhashEntry
	vectors      map[string][]float64
	semanticDown bool
}

type simhashEntry struct {
	value uint64
	ok    bool
}

// NewEngine builds an engine. embedder may be nil; the semantic tier is
// then skipped regardless of configuration.
func NewEngine(cfg Config, embedder Embedder, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:          cfg.withDefaults(),
		embedder:     embedder,
		logger:       logger,
		fingerprints: make(map[string]string),
		simhashes:    make(map[string]simhashEntry),
		vectors:      make(map[string][]float64),
	}
}

// IsDuplicate reports whether a and b represent the same story under the
// configured thresholds.
func (e *Engine) IsDuplicate(ctx context.Context, a, b model.Article) bool {
	if e.exactMatch(a, b) {
		return true
	}

	overlap := trigramJaccard(a.Title, b.Title)
	if overlap >= e.cfg.TitleThreshold {
		return true
	}
	if distance, ok := e.titleSimhashDistance(a, b); ok && distance <= e.cfg.SimhashMaxDistance {
		return true
	}

	if cosine, ok := e.semanticCosine(ctx, a, b); ok {
		return cosine >= e.cfg.SemanticThreshold
	}
	return false
}

// Similarity returns a [0,1] score for the pair. An exact-tier match is
// 1.0 and no further tiers run; a fuzzy verdict at or above the title
// threshold stands without consulting the semantic tier.
func (e *Engine) Similarity(ctx context.Context, a, b model.Article) float64 {
	if e.exactMatch(a, b) {
		return 1.0
	}

	overlap := trigramJaccard(a.Title, b.Title)
	if overlap >= e.cfg.TitleThreshold {
		return overlap
	}

	if cosine, ok := e.semanticCosine(ctx, a, b); ok && cosine > overlap {
		return cosine
	}
	return overlap
}

// Fingerprint returns the article's content fingerprint, memoized per
// engine since fingerprints are consulted repeatedly within a pass.
func (e *Engine) Fingerprint(a model.Article) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fp, ok := e.fingerprints[a.ID]; ok {
		return fp
	}
	fp := Fingerprint(a)
	e.fingerprints[a.ID] = fp
	return fp
}

// TitleOverlap exposes the token-set Jaccard used in audit output.
func (e *Engine) TitleOverlap(a, b model.Article) float64 {
	return tokenJaccard(a.Title, b.Title)
}

func (e *Engine) exactMatch(a, b model.Article) bool {
	if e.Fingerprint(a) == e.Fingerprint(b) {
		return true
	}
	urlA := NormalizeURL(a.URL)
	urlB := NormalizeURL(b.URL)
	return urlA != "" && urlA == urlB
}

func (e *Engine) titleSimhashDistance(a, b model.Article) (int, bool) {
	left := e.titleSimhash(a)
	right := e.titleSimhash(b)
	if !left.ok || !right.ok {
		return 0, false
	}
	return simhashDistance(left.value, right.value), true
}

func (e *Engine) titleSimhash(a model.Article) simhashEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.simhashes[a.ID]; ok {
		return entry
	}
	value, ok := simhash64(a.Title)
	entry := simhashEntry{value: value, ok: ok}
	e.simhashes[a.ID] = entry
	return entry
}

// semanticCosine runs the optional embedding tier. Any failure degrades
// the pass to fuzzy-only and is reported once as a warning, never as an
// error: the fuzzy verdict stands.
func (e *Engine) semanticCosine(ctx context.Context, a, b model.Article) (float64, bool) {
	if !e.cfg.SemanticEnabled || e.embedder == nil {
		return 0, false
	}
	e.mu.Lock()
	down := e.semanticDown
	e.mu.Unlock()
	if down {
		return 0, false
	}

	vecA, err := e.vector(ctx, a)
	if err != nil {
		e.disableSemantic(err)
		return 0, false
	}
	vecB, err := e.vector(ctx, b)
	if err != nil {
		e.disableSemantic(err)
		return 0, false
	}
	return cosine(vecA, vecB), true
}

func (e *Engine) vector(ctx context.Context, a model.Article) ([]float64, error) {
	e.mu.Lock()
	if vec, ok := e.vectors[a.ID]; ok {
		e.mu.Unlock()
		return vec, nil
	}
	e.mu.Unlock()

	vec, err := e.embedder.Embed(ctx, embeddingInput(a))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.vectors[a.ID] = vec
	e.mu.Unlock()
	return vec, nil
}

func (e *Engine) disableSemantic(err error) {
	e.mu.Lock()
	already := e.semanticDown
	e.semanticDown = true
	e.mu.Unlock()
	if !already {
		e.logger.Warn().Err(err).Msg("embedding capability unavailable; semantic tier disabled for this pass")
	}
}

func embeddingInput(a model.Article) string {
	title := NormalizeText(a.Title)
	body := NormalizeText(a.Body)
	switch {
	case body == "":
		return title
	case title == "":
		return body
	default:
		return title + "\n\n" + body
	}
}
