package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jackzampolin/folio/internal/document"
)

// Result is the outcome of resolving one job of a batch.
type Result struct {
	JobID    string             `json:"job_id" yaml:"job_id"`
	Document *document.Document `json:"document,omitempty" yaml:"document,omitempty"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// PoolConfig configures a new worker pool.
type PoolConfig struct {
	Runner      *Runner
	Logger      *slog.Logger
	WorkerCount int // Number of worker goroutines (default: 1)
}

// Pool resolves batches of jobs on a fixed set of workers.
// All workers share a single queue - natural load balancing via Go channel semantics.
type Pool struct {
	runner      *Runner
	logger      *slog.Logger
	workerCount int

	// In-flight tracking
	inFlight atomic.Int32
}

// NewPool creates a new worker pool.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	return &Pool{
		runner:      cfg.Runner,
		logger:      logger.With("workers", workerCount),
		workerCount: workerCount,
	}
}

// InFlight returns the number of jobs currently being resolved.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// ResolveAll resolves every job and returns one Result per job id, in the
// order given. A failing job does not stop the others; cancelling ctx fails
// the jobs not yet finished.
func (p *Pool) ResolveAll(ctx context.Context, jobIDs []string, wait bool) []Result {
	results := make([]Result, len(jobIDs))
	queue := make(chan int)

	var wg sync.WaitGroup
	workers := min(p.workerCount, len(jobIDs))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id, wait, jobIDs, queue, results)
		}(i)
	}

	for i := range jobIDs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("batch resolved", "jobs", len(jobIDs), "failed", failed)
	return results
}

// worker processes job indexes from the shared queue.
func (p *Pool) worker(ctx context.Context, id int, wait bool, jobIDs []string, queue <-chan int, results []Result) {
	for idx := range queue {
		jobID := jobIDs[idx]
		p.logger.Debug("worker picked job", "worker_id", id, "job_id", jobID)

		p.inFlight.Add(1)
		doc, err := p.runner.Resolve(ctx, jobID, wait)
		p.inFlight.Add(-1)

		results[idx] = Result{JobID: jobID, Document: doc, Err: err}
		if err != nil {
			results[idx].Error = err.Error()
		}
	}
}
