// Package async runs pipeline jobs on a bounded pool of background workers.
package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
)

// Job is one queued document.
type Job struct {
	Document    pipeline.Job
	Force       bool // reprocess even if the content hash is unchanged
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
