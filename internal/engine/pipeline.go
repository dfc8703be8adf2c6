package engine

import (
	"context"

	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/globaltime"
	"horse.fit/techbrief/internal/issues"
	"horse.fit/techbrief/internal/report"
	"horse.fit/techbrief/internal/similarity"
	"horse.fit/techbrief/internal/store"
)

// Pipeline runs a complete processing pass end to end: the Engine's
// scoring and clustering, then issue proposal, fingerprint promotion,
// and the monthly report.
type Pipeline struct {
	engine     *Engine
	similarity *similarity.Engine
	ledger     store.Store
	reports    *report.Writer
	creator    issues.Creator
	dryCreator issues.Creator
	logger     zerolog.Logger
}

// Outcome extends PassResult with the side effects of a full pass.
type Outcome struct {
	PassResult
	IssuesCreated int
	ReportPath    string
}

func NewPipeline(
	eng *Engine,
	sim *similarity.Engine,
	ledger store.Store,
	reports *report.Writer,
	creator issues.Creator,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		engine:     eng,
		similarity: sim,
		ledger:     ledger,
		reports:    reports,
		creator:    creator,
		dryCreator: issues.NewLogCreator(logger),
		logger:     logger,
	}
}

// ProcessBatch runs one pass over a raw JSON batch. In dry-run mode the
// proposals are logged instead of created and no fingerprint is
// recorded, so a later real pass can still propose the same stories.
func (p *Pipeline) ProcessBatch(ctx context.Context, payload []byte, dryRun bool) (Outcome, error) {
	result, err := p.engine.RunRaw(ctx, payload)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{PassResult: result}

	if dryRun {
		for _, topic := range result.Proposed {
			if err := p.dryCreator.Create(ctx, issues.FromCluster(topic)); err != nil {
				p.logger.Warn().Err(err).Msg("dry run logging failed")
			}
		}
	} else {
		created, err := issues.Promote(ctx, p.creator, p.similarity, p.ledger, result.Proposed, p.logger)
		if err != nil {
			return outcome, err
		}
		outcome.IssuesCreated = created
	}

	path, err := p.reports.Write(result.Ranked, globaltime.UTC())
	if err != nil {
		p.logger.Warn().Err(err).Msg("report write failed")
	} else {
		outcome.ReportPath = path
	}
	return outcome, nil
}
