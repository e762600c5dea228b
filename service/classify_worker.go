package service

import (
	"context"
	"log/slog"
	"sync"
)

// ClassifyWorkerPool consumes article ids from a bounded queue and runs the
// classifier over them with limited concurrency, so a burst of new articles
// cannot overwhelm the model provider's rate limits. It is the explicit
// replacement for fire-and-forget background tasks: completion and errors are
// observable, and shutdown drains cleanly.
type ClassifyWorkerPool struct {
	classifier ClassifierService
	queue      chan string
	workers    int
	logger     *slog.Logger

	mu      sync.Mutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewClassifyWorkerPool creates a pool with the given worker count and queue
// capacity.
func NewClassifyWorkerPool(classifier ClassifierService, workers, queueSize int, logger *slog.Logger) *ClassifyWorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyWorkerPool{
		classifier: classifier,
		queue:      make(chan string, queueSize),
		workers:    workers,
		logger:     logger,
	}
}

// Start launches the workers. Each worker runs until the queue is closed by
// Stop; ctx bounds the classification calls themselves.
func (p *ClassifyWorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	p.logger.InfoContext(ctx, "classification worker pool started",
		"workers", p.workers,
		"queue_size", cap(p.queue))
}

func (p *ClassifyWorkerPool) run(ctx context.Context, worker int) {
	defer p.wg.Done()

	for articleID := range p.queue {
		if ctx.Err() != nil {
			p.logger.InfoContext(ctx, "classification worker stopping", "worker", worker)
			return
		}
		if err := p.classifier.Classify(ctx, articleID); err != nil {
			p.logger.ErrorContext(ctx, "classification failed",
				"error", err,
				"worker", worker,
				"article_id", articleID)
		}
	}
}

// Enqueue offers an article id without blocking. It reports false when the
// queue is full or the pool is shut down; the caller leaves the article for
// the next backfill pass.
func (p *ClassifyWorkerPool) Enqueue(articleID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	select {
	case p.queue <- articleID:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight classifications to finish.
func (p *ClassifyWorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("classification worker pool stopped")
}
