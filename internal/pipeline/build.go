package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/classify"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/dedup"
	"github.com/joseph-ayodele/parts-catalog/internal/extract"
	"github.com/joseph-ayodele/parts-catalog/internal/guides"
	"github.com/joseph-ayodele/parts-catalog/internal/images"
	"github.com/joseph-ayodele/parts-catalog/internal/patterns"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
	"github.com/joseph-ayodele/parts-catalog/internal/storage"
)

// Stages holds the two document stages wired from one configuration. The pattern bank and
// keyword tables are built once and shared.
type Stages struct {
	Catalog *CatalogStage
	Guide   *GuideStage
}

// BuildStages wires recognizers, classifiers and image handling from cfg.
func BuildStages(cfg *common.Config, opener pdfdoc.Opener, store storage.ArtifactStore, logger *slog.Logger) (*Stages, error) {
	if logger == nil {
		logger = slog.Default()
	}
	extra := make([]patterns.RuleSpec, 0, len(cfg.Extraction.ExtraPatterns))
	for _, p := range cfg.Extraction.ExtraPatterns {
		extra = append(extra, patterns.RuleSpec{Name: p.Name, Pattern: p.Pattern, Type: constants.EntityType(p.Type)})
	}
	bank, err := patterns.Default(extra...)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "pattern bank", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	recognizer := extract.NewPartRecognizer(bank, extract.WithContextLimit(cfg.Extraction.ContextLimit))
	limits := Limits{
		MaxPages:      cfg.Extraction.MaxPages,
		PageTextLimit: cfg.Extraction.PageTextLimit,
		SkipImages:    cfg.Extraction.SkipImages,
	}

	catalog := &CatalogStage{
		Logger:     logger,
		Opener:     opener,
		Parts:      recognizer,
		Models:     extract.NewModelRecognizer(bank),
		Classifier: classify.NewCategoryClassifier(nil, nil),
		Associator: images.NewAssociator(recognizer, cfg.Extraction.AssociationWindow, images.ParsePolicy(cfg.Extraction.FallbackPolicy)),
		Dedup:      dedup.New(dedup.Earliest),
		Limits:     limits,
	}
	if store != nil {
		catalog.Images = images.NewExtractor(store,
			images.WithMinPixels(cfg.Extraction.MinImagePixels),
			images.WithFullPageRatio(cfg.Extraction.FullPageRatio),
			images.WithMaxDimension(cfg.Extraction.MaxImageDimension),
			images.WithLogger(logger),
		)
	}

	return &Stages{
		Catalog: catalog,
		Guide: &GuideStage{
			Logger:    logger,
			Opener:    opener,
			Extractor: guides.NewExtractor(recognizer),
			Limits:    limits,
		},
	}, nil
}
