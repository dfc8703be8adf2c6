package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/techbrief/internal/archive"
	"horse.fit/techbrief/internal/cli"
	"horse.fit/techbrief/internal/globaltime"
)

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	month := fs.String("month", "", "Month to report on as YYYY-MM (default: current month)")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("report setup failed")
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		return 1
	}

	slug := strings.TrimSpace(*month)
	asOf := globaltime.UTC()
	if slug == "" {
		slug = archive.MonthSlug(asOf)
	} else {
		parsed, err := time.Parse("2006-01", slug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --month %q: expected YYYY-MM\n", slug)
			return 2
		}
		// Rank as of the end of the requested month so freshness decay
		// matches what a pass at month close would have produced.
		asOf = parsed.AddDate(0, 1, 0).Add(-time.Second)
	}

	articles := d.archive.LoadMonth(slug)
	if len(articles) == 0 {
		fmt.Fprintf(os.Stderr, "No archived articles for %s\n", slug)
		return 1
	}

	result := d.engine.Rank(ctx, articles, asOf)
	path, err := d.reports.Write(result.Ranked, asOf)
	if err != nil {
		logger.Error().Err(err).Msg("report write failed")
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		return 1
	}

	fmt.Printf("report month=%s articles=%d clusters=%d file=%s\n",
		slug, len(articles), len(result.Ranked), path)
	return 0
}
