package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/classify"
	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/dedup"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/extract"
	"github.com/joseph-ayodele/parts-catalog/internal/images"
	"github.com/joseph-ayodele/parts-catalog/internal/pdfdoc"
)

// Limits bound the work done per document.
type Limits struct {
	MaxPages      int
	PageTextLimit int
	SkipImages    bool
}

// CatalogStage turns one catalog PDF into deduplicated part records and image links.
type CatalogStage struct {
	Logger     *slog.Logger
	Opener     pdfdoc.Opener
	Parts      *extract.PartRecognizer
	Models     *extract.ModelRecognizer
	Classifier *classify.CategoryClassifier
	Images     *images.Extractor
	Associator *images.Associator
	Dedup      *dedup.Deduplicator
	Limits     Limits
}

// Run never returns an error: failures are recorded on the result.
func (s *CatalogStage) Run(ctx context.Context, job Job) *DocumentResult {
	logger := common.LoggerFrom(ctx, s.Logger)
	res := &DocumentResult{
		Job:     job,
		Name:    strings.TrimSuffix(filepath.Base(job.Path), filepath.Ext(job.Path)),
		Status:  constants.DocumentOK,
		Started: time.Now(),
	}
	defer func() { res.Duration = time.Since(res.Started) }()

	doc, err := s.Opener.Open(ctx, job.Path)
	if err != nil {
		res.Status, res.Err = constants.DocumentOpenFailed, err
		logger.Error("catalog open failed", "error", err)
		return res
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("catalog close failed", "error", cerr)
		}
	}()

	res.NumPages = doc.NumPages()
	last := res.NumPages
	if s.Limits.MaxPages > 0 && last > s.Limits.MaxPages {
		last = s.Limits.MaxPages
	}

	// The first pages are read up front: they feed family detection and the contents map.
	head := make([]pdfdoc.Page, 0, min(last, classify.TOCScanPages()))
	headErr := make([]error, 0, cap(head))
	headText := make([]string, 0, cap(head))
	for n := 1; n <= cap(head); n++ {
		p, perr := s.readPage(ctx, doc, n)
		head, headErr, headText = append(head, p), append(headErr, perr), append(headText, p.Text)
	}
	firstPage := ""
	if len(headText) > 0 {
		firstPage = headText[0]
	}
	res.Family = classify.DetectCatalogType(job.Path, firstPage)
	toc := classify.ExtractTOC(headText)
	logger.Debug("catalog detected", "family", res.Family, "pages", res.NumPages, "toc_entries", len(toc))

	seq := 0
	for n := 1; n <= last; n++ {
		var page pdfdoc.Page
		var perr error
		if n <= len(head) {
			page, perr = head[n-1], headErr[n-1]
		} else {
			page, perr = s.readPage(ctx, doc, n)
		}
		out, parts, links := s.runPage(ctx, logger, doc, res, page, perr, toc, &seq)
		res.Pages = append(res.Pages, out)
		res.Parts = append(res.Parts, parts...)
		res.Links = append(res.Links, links...)
	}
	if last < res.NumPages {
		res.Pages = append(res.Pages, PageOutcome{Page: last + 1, Reason: constants.SkipPageLimit})
		logger.Warn("page limit reached", "processed", last, "pages", res.NumPages)
	}

	res.Parts, res.Dedup = s.Dedup.Dedup(res.Parts)
	logger.Info("catalog extracted",
		"family", res.Family,
		"pages", len(res.Pages),
		"candidates", res.Dedup.Input,
		"parts", len(res.Parts),
		"images", res.ImagesAssociated(),
		"page_failures", res.PageFailures(),
	)
	return res
}

func (s *CatalogStage) readPage(ctx context.Context, doc pdfdoc.Document, n int) (pdfdoc.Page, error) {
	p, err := doc.Page(ctx, n)
	if err != nil {
		return pdfdoc.Page{Number: n}, err
	}
	return p, nil
}

// runPage recognizes parts, then extracts and associates the page images.
func (s *CatalogStage) runPage(
	ctx context.Context,
	logger *slog.Logger,
	doc pdfdoc.Document,
	res *DocumentResult,
	page pdfdoc.Page,
	readErr error,
	toc []classify.TOCEntry,
	seq *int,
) (PageOutcome, []entity.ExtractedPart, []entity.PartImage) {
	out := PageOutcome{Page: page.Number, Source: page.Source}
	if readErr != nil {
		out.Reason, out.Err = constants.SkipTextFailed, readErr
		logger.Warn("page text failed", "page", page.Number, "error", readErr)
		return out, nil, nil
	}
	if strings.TrimSpace(page.Text) == "" {
		out.Reason = constants.SkipEmptyPage
		return out, nil, nil
	}

	parts := s.buildParts(res, page, toc, seq)
	out.Parts = len(parts)
	if len(parts) == 0 || s.Limits.SkipImages || s.Images == nil {
		return out, parts, nil
	}

	raws, err := doc.Images(ctx, page.Number)
	if err != nil {
		out.Reason, out.Err = constants.SkipImagesFailed, err
		logger.Warn("page images failed", "page", page.Number, "error", err)
		return out, parts, nil
	}
	extracted, outcomes := s.Images.Extract(res.Job.Path, page, raws)
	out.Images = len(extracted)
	for _, oc := range outcomes {
		if oc.Reason != constants.SkipNone {
			out.ImageSkips = append(out.ImageSkips, oc)
		}
	}

	pageParts := make([]*entity.ExtractedPart, len(parts))
	for i := range parts {
		pageParts[i] = &parts[i]
	}
	var links []entity.PartImage
	for i := range extracted {
		img := &extracted[i]
		linked := s.Associator.Associate(*img, page.Spans, pageParts, res.Family)
		if len(linked) == 0 {
			img.Data = nil
			out.ImageSkips = append(out.ImageSkips, images.Outcome{Page: page.Number, Index: img.Index, Name: img.Name, Reason: constants.SkipNoCandidate})
			continue
		}
		if err := s.Images.Store(ctx, img); err != nil {
			for _, p := range pageParts {
				if p.ImageRef == img.Filename {
					p.ImageRef = ""
				}
			}
			out.ImageSkips = append(out.ImageSkips, images.Outcome{Page: page.Number, Index: img.Index, Name: img.Name, Reason: constants.SkipWriteFailed, Err: err})
			logger.Warn("image write failed", "page", page.Number, "image", img.Filename, "error", err)
			continue
		}
		for j := range linked {
			linked[j].Path = img.Path
		}
		links = append(links, linked...)
		out.Associated++
	}
	return out, parts, links
}

// buildParts creates one record per recognizer candidate on the page.
func (s *CatalogStage) buildParts(res *DocumentResult, page pdfdoc.Page, toc []classify.TOCEntry, seq *int) []entity.ExtractedPart {
	candidates := s.Parts.Recognize(page.Text, page.Number, res.Family)
	if len(candidates) == 0 {
		return nil
	}
	models := s.Models.Recognize(page.Text)
	specs := extract.PageSpecifications(page.Text)
	features := extract.PageFeatures(page.Text)
	section := classify.SectionFor(page.Number, toc)

	stored := page.Text
	if s.Limits.PageTextLimit > 0 {
		stored = extract.Truncate(stored, s.Limits.PageTextLimit)
	}

	parts := make([]entity.ExtractedPart, 0, len(candidates))
	for _, c := range candidates {
		*seq++
		parts = append(parts, entity.ExtractedPart{
			Seq:            *seq,
			Catalog:        res.Name,
			Family:         res.Family,
			Type:           c.Type,
			Number:         c.Number,
			Description:    c.Context,
			Category:       s.Classifier.Classify(c.Context),
			Section:        section,
			Page:           page.Number,
			PageText:       stored,
			PDFPath:        filepath.Base(res.Job.Path),
			Models:         models,
			Specifications: specs,
			OENumbers:      extract.OENumbers(c.Context),
			Applications:   strings.Join(s.Models.Recognize(c.Context), ";"),
			Features:       features,
		})
	}
	return parts
}

// IsOpenFailure reports whether r failed before any page was read.
func IsOpenFailure(r *DocumentResult) bool {
	return r.Status == constants.DocumentOpenFailed || errors.Is(r.Err, common.ErrDocumentOpen)
}
