package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/archive"
	"horse.fit/techbrief/internal/classify"
	"horse.fit/techbrief/internal/cli"
	"horse.fit/techbrief/internal/config"
	"horse.fit/techbrief/internal/engine"
	"horse.fit/techbrief/internal/issues"
	"horse.fit/techbrief/internal/logging"
	"horse.fit/techbrief/internal/report"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

// deps bundles the collaborators shared by every command.
type deps struct {
	cfg      *config.Config
	logger   zerolog.Logger
	sim      *similarity.Engine
	ledger   store.Store
	archive  *archive.Archive
	reports  *report.Writer
	engine   *engine.Engine
	pipeline *engine.Pipeline
}

// bootstrap loads the environment file, config, and logger. Commands
// that need the full pipeline call buildDeps afterwards.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func buildDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	arch, err := archive.New(cfg.ArchiveDir, logger)
	if err != nil {
		return nil, err
	}

	var embedder similarity.Embedder
	if cfg.SemanticEnabled {
		embedder = similarity.NewHTTPEmbedder(
			cfg.EmbeddingEndpoint,
			similarity.DefaultEmbeddingMaxLength,
			cfg.EmbeddingTimeout,
		)
	}
	sim := similarity.NewEngine(similarity.Config{
		TitleThreshold:    cfg.TitleThreshold,
		SemanticEnabled:   cfg.SemanticEnabled,
		SemanticThreshold: cfg.SemanticThreshold,
	}, embedder, logger)

	var classifier classify.Classifier
	if cfg.ClassifyEndpoint != "" {
		classifier = classify.NewHTTPClassifier(cfg.ClassifyEndpoint, cfg.ClassifyTimeout, logger)
	}

	eng, err := engine.New(cfg, sim, ledger, arch, classifier, logger)
	if err != nil {
		return nil, err
	}

	reports := report.NewWriter(cfg.ReportDir, cfg.HorizonWeeks)
	pipeline := engine.NewPipeline(eng, sim, ledger, reports, issues.NewLogCreator(logger), logger)

	return &deps{
		cfg:      cfg,
		logger:   logger,
		sim:      sim,
		ledger:   ledger,
		archive:  arch,
		reports:  reports,
		engine:   eng,
		pipeline: pipeline,
	}, nil
}

func openLedger(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		ledger, err := store.OpenGorm(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open fingerprint database: %w", err)
		}
		return ledger, nil
	}
	ledger, err := store.OpenFile(cfg.StorePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open fingerprint file: %w", err)
	}
	return ledger, nil
}
