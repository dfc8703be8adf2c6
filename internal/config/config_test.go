package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}

	if cfg.TitleThreshold != 0.85 {
		t.Fatalf("unexpected TITLE_THRESHOLD default: %f", cfg.TitleThreshold)
	}
	if cfg.HorizonWeeks != 4 || cfg.RetentionMonths != 6 || cfg.TopN != 10 {
		t.Fatalf("unexpected scoring defaults: %+v", cfg)
	}
	if cfg.MinScore != 0.6 {
		t.Fatalf("unexpected MIN_SCORE default: %f", cfg.MinScore)
	}
	if cfg.SemanticEnabled {
		t.Fatalf("semantic tier must default to disabled")
	}
	if err := cfg.Weights().Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TITLE_THRESHOLD", "0.6")
	t.Setenv("TOP_N", "5")
	t.Setenv("SEMANTIC_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TitleThreshold != 0.6 || cfg.TopN != 5 || !cfg.SemanticEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_RejectsBadWeightSum(t *testing.T) {
	t.Setenv("WEIGHT_FRESHNESS", "0.5")

	if _, err := Load(); err == nil {
		t.Fatalf("expected configuration error for weights summing above 1")
	} else if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Ranges(t *testing.T) {
	base := func() *Config {
		return &Config{
			TitleThreshold:    0.85,
			SemanticThreshold: 0.80,
			HorizonWeeks:      4,
			WeightFreshness:   0.35,
			WeightAuthority:   0.20,
			WeightNovelty:     0.30,
			WeightBalance:     0.15,
			TopN:              10,
			MinScore:          0.6,
			RetentionMonths:   6,
			HistoryMonths:     3,
			StorePath:         ".cache/fingerprints.json",
			Port:              8090,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.TitleThreshold = 1.2 }},
		{"zero horizon", func(c *Config) { c.HorizonWeeks = 0 }},
		{"zero retention", func(c *Config) { c.RetentionMonths = 0 }},
		{"zero topN", func(c *Config) { c.TopN = 0 }},
		{"min score above one", func(c *Config) { c.MinScore = 1.2 }},
		{"no store path", func(c *Config) { c.StorePath = " " }},
		{"bad port", func(c *Config) { c.Port = 0 }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected %s to fail validation", tc.name)
		}
	}
}
