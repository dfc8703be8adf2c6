package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/techbrief/internal/scoring"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Fingerprint ledger. DATABASE_URL selects the Postgres-backed store;
	// when empty the JSON file store at STORE_PATH is used.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	StorePath   string `envconfig:"STORE_PATH" default:".cache/fingerprints.json"`
	ArchiveDir  string `envconfig:"ARCHIVE_DIR" default:"data/archive"`
	ReportDir   string `envconfig:"REPORT_DIR" default:"docs/analysis"`

	// Similarity thresholds.
	TitleThreshold    float64 `envconfig:"TITLE_THRESHOLD" default:"0.85"`
	SemanticEnabled   bool    `envconfig:"SEMANTIC_ENABLED" default:"false"`
	SemanticThreshold float64 `envconfig:"SEMANTIC_THRESHOLD" default:"0.80"`

	// Scoring.
	HorizonWeeks    int     `envconfig:"HORIZON_WEEKS" default:"4"`
	WeightFreshness float64 `envconfig:"WEIGHT_FRESHNESS" default:"0.35"`
	WeightAuthority float64 `envconfig:"WEIGHT_AUTHORITY" default:"0.20"`
	WeightNovelty   float64 `envconfig:"WEIGHT_NOVELTY" default:"0.30"`
	WeightBalance   float64 `envconfig:"WEIGHT_BALANCE" default:"0.15"`

	// Output shaping and retention.
	TopN            int     `envconfig:"TOP_N" default:"10"`
	MinScore        float64 `envconfig:"MIN_SCORE" default:"0.6"`
	RetentionMonths int     `envconfig:"RETENTION_MONTHS" default:"6"`
	HistoryMonths   int     `envconfig:"HISTORY_MONTHS" default:"3"`

	// Optional capabilities.
	EmbeddingEndpoint string        `envconfig:"EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingTimeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"45s"`
	ClassifyEndpoint  string        `envconfig:"CLASSIFY_ENDPOINT" default:""`
	ClassifyTimeout   time.Duration `envconfig:"CLASSIFY_TIMEOUT" default:"60s"`

	// HTTP API.
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TitleThreshold <= 0 || c.TitleThreshold > 1 {
		return fmt.Errorf("TITLE_THRESHOLD must be in (0,1], got %f", c.TitleThreshold)
	}
	if c.SemanticThreshold <= 0 || c.SemanticThreshold > 1 {
		return fmt.Errorf("SEMANTIC_THRESHOLD must be in (0,1], got %f", c.SemanticThreshold)
	}
	if c.HorizonWeeks < 1 {
		return fmt.Errorf("HORIZON_WEEKS must be >= 1")
	}
	if c.RetentionMonths < 1 {
		return fmt.Errorf("RETENTION_MONTHS must be >= 1")
	}
	if c.HistoryMonths < 0 {
		return fmt.Errorf("HISTORY_MONTHS must be >= 0")
	}
	if c.TopN < 1 {
		return fmt.Errorf("TOP_N must be >= 1")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("MIN_SCORE must be in [0,1], got %f", c.MinScore)
	}
	if err := c.Weights().Validate(); err != nil {
		return err
	}
	if c.DatabaseURL == "" && strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("STORE_PATH is required when DATABASE_URL is not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port, got %d", c.Port)
	}
	return nil
}

func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{
		Freshness: c.WeightFreshness,
		Authority: c.WeightAuthority,
		Novelty:   c.WeightNovelty,
		Balance:   c.WeightBalance,
	}
}
