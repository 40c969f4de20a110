package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrJobFailed is returned when a job's notification reports a failure.
var ErrJobFailed = errors.New("analysis job failed")

// ErrWaitTimeout is returned when no completion notification arrives in time.
var ErrWaitTimeout = errors.New("timed out waiting for job completion")

// errPending means the job's notification has not arrived yet.
var errPending = errors.New("job still pending")

// Config configures a Waiter.
type Config struct {
	// InitialDelay is the first backoff delay between polls.
	InitialDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// Timeout bounds the whole wait. Zero means no timeout.
	Timeout time.Duration
	// MaxAttempts bounds the number of polls. Zero means poll until Timeout.
	MaxAttempts uint
	Logger      *slog.Logger
}

// DefaultConfig returns the default waiter configuration.
func DefaultConfig() Config {
	return Config{
		InitialDelay: 5 * time.Second,
		MaxDelay:     60 * time.Second,
		Timeout:      30 * time.Minute,
		MaxAttempts:  0,
	}
}

// Waiter blocks until a job's completion notification arrives.
type Waiter struct {
	queue  Queue
	cfg    Config
	logger *slog.Logger
}

// NewWaiter creates a waiter reading notifications from queue.
func NewWaiter(queue Queue, cfg Config) *Waiter {
	def := DefaultConfig()
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Waiter{queue: queue, cfg: cfg, logger: cfg.Logger}
}

// Wait polls the queue with exponential backoff until the notification for
// jobID arrives. It returns jobID when the job succeeded, ErrJobFailed when it
// did not, and ErrWaitTimeout when the timeout or attempt budget runs out.
func (w *Waiter) Wait(ctx context.Context, jobID string) (string, error) {
	pollCtx := ctx
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := retry.Do(
		func() error { return w.poll(pollCtx, jobID) },
		retry.Context(pollCtx),
		retry.Attempts(w.cfg.MaxAttempts),
		retry.Delay(w.cfg.InitialDelay),
		retry.MaxDelay(w.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrJobFailed)
		}),
		retry.OnRetry(func(n uint, err error) {
			if !errors.Is(err, errPending) {
				w.logger.Warn("notification poll failed, retrying", "job_id", jobID, "attempt", n+1, "error", err)
			}
		}),
	)

	switch {
	case err == nil:
		w.logger.Info("job completed", "job_id", jobID, "waited", time.Since(start).Round(time.Millisecond))
		return jobID, nil
	case errors.Is(err, ErrJobFailed):
		return "", err
	case ctx.Err() != nil:
		// The caller gave up; report that rather than a timeout.
		return "", ctx.Err()
	case errors.Is(err, errPending), errors.Is(err, context.DeadlineExceeded):
		return "", fmt.Errorf("%w: job %s after %s", ErrWaitTimeout, jobID, time.Since(start).Round(time.Millisecond))
	default:
		return "", fmt.Errorf("%w: job %s: %w", ErrWaitTimeout, jobID, err)
	}
}

// poll reads the queue once. It returns nil when jobID succeeded.
func (w *Waiter) poll(ctx context.Context, jobID string) error {
	msgs, err := w.queue.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	for _, msg := range msgs {
		n, err := ParseMessage(msg.Body)
		if err != nil {
			w.logger.Warn("rejecting unreadable notification", "message_id", msg.ID, "error", err)
			if err := w.queue.Reject(ctx, msg); err != nil {
				w.logger.Warn("failed to reject notification", "message_id", msg.ID, "error", err)
			}
			continue
		}
		if n.JobID != jobID {
			continue
		}

		if err := w.queue.Delete(ctx, msg); err != nil {
			w.logger.Warn("failed to delete notification", "message_id", msg.ID, "error", err)
		}
		if !n.Succeeded() {
			return fmt.Errorf("%w: job %s status %s", ErrJobFailed, jobID, n.Status)
		}
		return nil
	}
	return errPending
}
