// Package jobs runs document reconstruction passes for analysis jobs.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/document"
)

// ErrNoWaiter is returned when a wait is requested but no waiter is configured.
var ErrNoWaiter = errors.New("no completion waiter configured")

// Waiter blocks until an analysis job has completed.
type Waiter interface {
	Wait(ctx context.Context, jobID string) (string, error)
}

// Config configures a Runner.
type Config struct {
	Source  document.PageSource
	Waiter  Waiter // optional
	Options []document.Option
	Logger  *slog.Logger
}

// Runner is the entry point for resolving a job into a document.
// Options may be replaced at runtime, e.g. on config reload.
type Runner struct {
	source document.PageSource
	waiter Waiter
	logger *slog.Logger

	mu   sync.RWMutex
	opts []document.Option
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		source: cfg.Source,
		waiter: cfg.Waiter,
		logger: cfg.Logger,
		opts:   cfg.Options,
	}
}

// SetOptions replaces the aggregator options used by subsequent passes.
func (r *Runner) SetOptions(opts ...document.Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Resolve reconstructs the document of jobID. When wait is set it first
// blocks until the job's completion notification arrives. Every call runs a
// fresh pass tagged with its own pass id.
func (r *Runner) Resolve(ctx context.Context, jobID string, wait bool) (*document.Document, error) {
	logger := r.logger.With("job_id", jobID, "pass_id", uuid.New().String())
	start := time.Now()

	if wait {
		if r.waiter == nil {
			return nil, ErrNoWaiter
		}
		logger.Info("waiting for job completion")
		if _, err := r.waiter.Wait(ctx, jobID); err != nil {
			logger.Error("job did not complete", "error", err)
			return nil, err
		}
	}

	r.mu.RLock()
	opts := append([]document.Option{}, r.opts...)
	r.mu.RUnlock()
	opts = append(opts, document.WithLogger(logger))

	doc, err := document.NewAggregator(r.source, opts...).Resolve(ctx, jobID)
	if err != nil {
		logger.Error("document resolution failed", "error", err)
		return nil, err
	}

	logger.Debug("pass finished", "duration", time.Since(start).Round(time.Millisecond))
	return doc, nil
}
