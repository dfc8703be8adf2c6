package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/techbrief/internal/cli"
	"horse.fit/techbrief/internal/globaltime"
)

func runPrune(args []string) int {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	months := fs.Int("retention-months", 0, "Override RETENTION_MONTHS for this run")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to %v\n", err)
		return 1
	}

	retention := cfg.RetentionMonths
	if *months > 0 {
		retention = *months
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("prune setup failed")
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		return 1
	}

	cutoff := globaltime.UTC().AddDate(0, -retention, 0)
	removed, err := ledger.Prune(ctx, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("prune failed")
		fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
		return 1
	}
	if err := ledger.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("prune commit failed")
		fmt.Fprintf(os.Stderr, "Prune commit failed: %v\n", err)
		return 1
	}

	fmt.Printf("prune removed=%d cutoff=%s retention_months=%d\n",
		removed, cutoff.Format(time.RFC3339), retention)
	return 0
}
