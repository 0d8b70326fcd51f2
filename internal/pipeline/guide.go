package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/guides"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
)

// GuideConfidence is the score of a guide to part cross reference found in guide text.
const GuideConfidence = 1.0

// GuideStage turns one technical guide PDF into a guide record and its part references.
type GuideStage struct {
	Logger    *slog.Logger
	Opener    pdfdoc.Opener
	Extractor *guides.Extractor
	Limits    Limits
}

func (s *GuideStage) Run(ctx context.Context, job Job) *DocumentResult {
	logger := common.LoggerFrom(ctx, s.Logger)
	res := &DocumentResult{Job: job, Status: constants.DocumentOK, Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	doc, err := s.Opener.Open(ctx, job.Path)
	if err != nil {
		res.Status, res.Err = constants.DocumentOpenFailed, err
		logger.Error("guide open failed", "error", err)
		return res
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("guide close failed", "error", cerr)
		}
	}()

	res.NumPages = doc.NumPages()
	last := res.NumPages
	if s.Limits.MaxPages > 0 && last > s.Limits.MaxPages {
		last = s.Limits.MaxPages
	}
	pages := make([]guides.PageText, 0, last)
	for n := 1; n <= last; n++ {
		out := PageOutcome{Page: n}
		p, perr := doc.Page(ctx, n)
		switch {
		case perr != nil:
			out.Reason, out.Err = constants.SkipTextFailed, perr
			logger.Warn("guide page text failed", "page", n, "error", perr)
		case strings.TrimSpace(p.Text) == "":
			out.Reason, out.Source = constants.SkipEmptyPage, p.Source
		default:
			out.Source = p.Source
			pages = append(pages, guides.PageText{Number: n, Text: p.Text})
		}
		res.Pages = append(res.Pages, out)
	}
	if last < res.NumPages {
		res.Pages = append(res.Pages, PageOutcome{Page: last + 1, Reason: constants.SkipPageLimit})
	}

	g := s.Extractor.Extract(job.Path, pages)
	res.Name = g.Name
	tf, raw, err := s.Extractor.Template(g)
	if err != nil {
		// the record is still stored; only the rendering projection is withheld
		logger.Warn("guide template rejected", "error", err)
	} else {
		res.Template = raw
		logger.Debug("guide template built", "document_id", tf.DocumentID, "sections", len(tf.Sections))
	}
	res.Guide = &g
	for _, n := range g.RelatedParts {
		res.GuideLinks = append(res.GuideLinks, entity.GuidePart{Number: n, Confidence: GuideConfidence})
	}
	logger.Info("guide extracted",
		"guide", g.Name,
		"category", g.Category,
		"sections", len(g.Sections),
		"specifications", len(g.Specifications),
		"related_parts", len(g.RelatedParts),
	)
	return res
}
