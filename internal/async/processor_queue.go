package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
	"github.com/joseph-ayodele/parts-catalog/internal/pipeline"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// DocumentProcessor is the part of pipeline.Processor the queue needs.
type DocumentProcessor interface {
	Process(ctx context.Context, job pipeline.Job) *pipeline.DocumentResult
}

type ProcessorQueue struct {
	proc     DocumentProcessor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(*pipeline.DocumentResult)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHandler is called from the worker goroutine after every processed document.
func WithResultHandler(f func(*pipeline.DocumentResult)) Option {
	return func(q *ProcessorQueue) { q.onResult = f }
}

func NewProcessorQueue(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 1,
		timeout: 30 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	traceID := job.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(common.WithRunID(context.Background(), traceID), q.timeout)
	defer cancel()

	doc := job.Document
	if job.Force {
		doc.Hash = ""
	}
	res := q.proc.Process(ctx, doc)
	if res.Err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "path", doc.Path, "status", res.Status, "error", res.Err)
	} else {
		q.logger.Info("processed document", "worker_id", workerID, "path", doc.Path, "status", res.Status, "parts", len(res.Parts),
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	if q.onResult != nil {
		q.onResult(res)
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Document.Path)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "path", job.Document.Path, "kind", job.Document.Kind, "force", job.Force)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Document.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for ctx.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
