package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"horse.fit/techbrief/internal/cli"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to article batch JSON file (- or empty reads stdin)")
	dryRun := fs.Bool("dry-run", false, "Log issue proposals without recording fingerprints")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

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

	payload, err := readBatchInput(strings.TrimSpace(*input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read batch: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("process setup failed")
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		return 1
	}

	outcome, err := d.pipeline.ProcessBatch(ctx, payload, *dryRun)
	if err != nil {
		logger.Error().Err(err).Msg("pass failed")
		fmt.Fprintf(os.Stderr, "Pass failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"process received=%d skipped=%d clusters=%d suppressed=%d merged=%d proposed=%d created=%d dry_run=%t\n",
		outcome.Received,
		outcome.Skipped,
		len(outcome.Ranked),
		outcome.Suppressed,
		outcome.Merged,
		len(outcome.Proposed),
		outcome.IssuesCreated,
		*dryRun,
	)
	if outcome.ReportPath != "" {
		fmt.Printf("report=%s\n", outcome.ReportPath)
	}
	return 0
}

func readBatchInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return payload, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
