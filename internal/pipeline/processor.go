package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
)

// Sink receives finished documents. The repository store implements it.
type Sink interface {
	SaveCatalog(ctx context.Context, res *DocumentResult) error
	SaveGuide(ctx context.Context, res *DocumentResult) error
}

// DocumentIndex remembers which document contents were already processed.
type DocumentIndex interface {
	Unchanged(ctx context.Context, path, hash string) (bool, error)
	RecordRun(ctx context.Context, run entity.DocumentRun) error
}

// Processor runs the stage for a job's kind, then stores the result.
type Processor struct {
	logger  *slog.Logger
	catalog *CatalogStage
	guide   *GuideStage
	sink    Sink
	index   DocumentIndex
	force   bool
}

func NewProcessor(logger *slog.Logger, catalog *CatalogStage, guide *GuideStage, sink Sink, index DocumentIndex) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, catalog: catalog, guide: guide, sink: sink, index: index}
}

// Force makes the processor ignore the unchanged-content check.
func (p *Processor) Force(force bool) *Processor {
	p.force = force
	return p
}

// Process handles one document end to end. It never returns nil.
func (p *Processor) Process(ctx context.Context, job Job) *DocumentResult {
	ctx = common.WithDocument(ctx, job.Path)
	logger := common.LoggerFrom(ctx, p.logger)

	if p.index != nil && job.Hash != "" && !p.force {
		same, err := p.index.Unchanged(ctx, job.Path, job.Hash)
		if err != nil {
			logger.Warn("document index lookup failed", "error", err)
		} else if same {
			logger.Info("document unchanged, skipping")
			return &DocumentResult{Job: job, Status: constants.DocumentUnchanged, Started: time.Now()}
		}
	}

	var res *DocumentResult
	if job.Kind == constants.KindGuide {
		res = p.guide.Run(ctx, job)
	} else {
		res = p.catalog.Run(ctx, job)
	}

	if res.Status == constants.DocumentOK && p.sink != nil {
		var err error
		if job.Kind == constants.KindGuide {
			err = p.sink.SaveGuide(ctx, res)
		} else {
			err = p.sink.SaveCatalog(ctx, res)
		}
		if err != nil {
			res.Status, res.Err = constants.DocumentStoreFailed, err
			logger.Error("document store failed", "error", err)
		}
	}
	p.record(ctx, logger, res)
	return res
}

func (p *Processor) record(ctx context.Context, logger *slog.Logger, res *DocumentResult) {
	if p.index == nil {
		return
	}
	finished := res.Started.Add(res.Duration)
	run := entity.DocumentRun{
		Path:        res.Job.Path,
		Kind:        res.Job.Kind,
		ContentHash: res.Job.Hash,
		Status:      res.Status,
		Pages:       res.NumPages,
		Parts:       len(res.Parts),
		Images:      res.ImagesAssociated(),
		StartedAt:   res.Started,
		FinishedAt:  &finished,
	}
	if id, err := uuid.Parse(common.RunIDFromContext(ctx)); err == nil {
		run.RunID = id
	}
	if res.Err != nil {
		msg := res.Err.Error()
		run.ErrorMessage = &msg
	}
	if err := p.index.RecordRun(ctx, run); err != nil {
		logger.Warn("document run not recorded", "error", err)
	}
}
