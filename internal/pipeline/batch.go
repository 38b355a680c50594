package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadscope/audit-cli/internal/model"
)

// BatchOutcome is the result of one request within a batch run. A failed
// audit is recorded here rather than aborting the batch.
type BatchOutcome struct {
	Request  model.AuditRequest
	Analysis *model.Analysis
	Err      error
}

// RunBatch audits every request with at most maxConcurrent in flight.
// Outcomes preserve request order. Only context cancellation stops the
// batch early; individual failures do not.
func (a *Analyzer) RunBatch(ctx context.Context, reqs []model.AuditRequest, maxConcurrent int) []BatchOutcome {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	outcomes := make([]BatchOutcome, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				outcomes[i] = BatchOutcome{Request: req, Err: err}
				return nil
			}
			analysis, err := a.Run(gCtx, req)
			outcomes[i] = BatchOutcome{Request: req, Analysis: analysis, Err: err}
			if err != nil {
				zap.L().Warn("pipeline: batch item failed",
					zap.String("url", req.URL), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
