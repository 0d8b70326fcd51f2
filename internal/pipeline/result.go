// Package pipeline runs catalog and guide documents through extraction and hands the results to storage.
package pipeline

import (
	"time"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/dedup"
	"github.com/joseph-ayodele/parts-catalog/internal/entity"
	"github.com/joseph-ayodele/parts-catalog/internal/images"
)

// Job is one document to process.
type Job struct {
	Path string
	Kind constants.DocumentKind
	Hash string // content hash from the directory scan; empty disables the unchanged check
}

// PageOutcome is the per-page result. Reason is empty when the page produced output normally.
type PageOutcome struct {
	Page       int
	Source     string
	Parts      int
	Images     int
	Associated int
	Reason     constants.SkipReason
	Err        error
	ImageSkips []images.Outcome
}

// DocumentResult is everything one document produced, plus its counters.
type DocumentResult struct {
	Job        Job
	Name       string
	Family     constants.CatalogFamily
	Status     constants.DocumentStatus
	Err        error
	NumPages   int
	Pages      []PageOutcome
	Parts      []entity.ExtractedPart
	Links      []entity.PartImage
	Guide      *entity.GuideRecord
	Template   []byte
	GuideLinks []entity.GuidePart
	Dedup      dedup.Stats
	Started    time.Time
	Duration   time.Duration
}

// ImagesAssociated counts distinct image artifacts linked to at least one part.
func (r *DocumentResult) ImagesAssociated() int {
	seen := map[string]struct{}{}
	for _, l := range r.Links {
		seen[l.Filename] = struct{}{}
	}
	return len(seen)
}

// PageFailures counts pages whose text could not be read.
func (r *DocumentResult) PageFailures() int {
	n := 0
	for _, p := range r.Pages {
		if p.Reason == constants.SkipTextFailed {
			n++
		}
	}
	return n
}

// Summary aggregates a batch.
type Summary struct {
	RunID              string
	DocumentsProcessed int
	PartsExtracted     int
	ImagesAssociated   int
	GuidesProcessed    int
	Unchanged          int
	Canceled           int
	OpenFailures       []string
	StoreFailures      []string
	Results            []*DocumentResult
}

func (s *Summary) add(r *DocumentResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case constants.DocumentOpenFailed:
		s.OpenFailures = append(s.OpenFailures, r.Job.Path)
		return
	case constants.DocumentUnchanged:
		s.Unchanged++
		return
	case constants.DocumentCanceled:
		s.Canceled++
		return
	case constants.DocumentStoreFailed:
		s.StoreFailures = append(s.StoreFailures, r.Job.Path)
	}
	s.DocumentsProcessed++
	if r.Job.Kind == constants.KindGuide {
		s.GuidesProcessed++
		return
	}
	s.PartsExtracted += len(r.Parts)
	s.ImagesAssociated += r.ImagesAssociated()
}
