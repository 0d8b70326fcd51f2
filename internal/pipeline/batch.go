package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

// Batch fans documents out over a bounded number of workers. Pages inside a document stay sequential.
type Batch struct {
	processor *Processor
	workers   int
	logger    *slog.Logger
}

func NewBatch(p *Processor, workers int, logger *slog.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{processor: p, workers: workers, logger: logger}
}

// Run processes jobs and returns the summary in job order. Cancellation is honoured between
// documents: a document that has started always finishes. The returned error is ctx.Err().
func (b *Batch) Run(ctx context.Context, jobs []Job) (*Summary, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = common.WithRunID(ctx, runID)
	}
	logger := common.LoggerFrom(ctx, b.logger)
	start := time.Now()

	results := make([]*DocumentResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, job := range jobs {
		if ctx.Err() != nil {
			results[i] = &DocumentResult{Job: job, Status: constants.DocumentCanceled}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = &DocumentResult{Job: job, Status: constants.DocumentCanceled}
				return nil
			}
			results[i] = b.processor.Process(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	sum := &Summary{RunID: runID}
	for _, r := range results {
		sum.add(r)
	}
	logger.Info("batch finished",
		"documents", sum.DocumentsProcessed,
		"parts", sum.PartsExtracted,
		"images", sum.ImagesAssociated,
		"guides", sum.GuidesProcessed,
		"unchanged", sum.Unchanged,
		"canceled", sum.Canceled,
		"open_failures", len(sum.OpenFailures),
		"store_failures", len(sum.StoreFailures),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, ctx.Err()
}
