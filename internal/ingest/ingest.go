// Package ingest discovers catalog and guide PDFs on disk and turns them into pipeline jobs.
package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/parts-catalog/constants"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath string
	Kind       constants.DocumentKind
	HashHex    string
	Size       int64
	ModTime    time.Time
	Err        string
}

// Job converts a successful result into a pipeline job.
func (r IngestionResult) Job() pipeline.Job {
	return pipeline.Job{Path: r.SourcePath, Kind: r.Kind, Hash: r.HashHex}
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Ingestor is the behavior the CLI and the daemon depend on.
type Ingestor interface {
	// IngestPath hashes a single document.
	IngestPath(ctx context.Context, kind constants.DocumentKind, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, kind constants.DocumentKind, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// Jobs keeps the successful results, in scan order.
func Jobs(results []IngestionResult) []pipeline.Job {
	jobs := make([]pipeline.Job, 0, len(results))
	for _, r := range results {
		if r.Err == "" {
			jobs = append(jobs, r.Job())
		}
	}
	return jobs
}
