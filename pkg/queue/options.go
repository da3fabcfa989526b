package queue

import (
	"log/slog"
	"time"
)

// Option configures a Queue at construction time.
type Option func(*options)

type options struct {
	concurrency  int
	pollInterval time.Duration
	lockTimeout  time.Duration
	maxRetries   int
	retryDelay   time.Duration
	logger       *slog.Logger
}

// WithConcurrency sets the number of jobs processed simultaneously.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPollInterval sets how often idle workers check for runnable jobs.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLockTimeout sets the claim lease duration. Jobs whose lease expires
// return to the runnable set, so it must exceed the longest expected
// handler run.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithMaxRetries sets the default retry limit for enqueued jobs.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryDelay sets the default base delay between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithLogger sets the queue's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// EnqueueOption overrides per-job scheduling fields at enqueue time.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	startAfter *time.Time
	maxRetries *int
	retryDelay *time.Duration
	backoff    *bool
	priority   *int
}

// WithStartAfter delays the job's visibility until the given time.
func WithStartAfter(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.startAfter = &t
	}
}

// WithJobMaxRetries overrides the job's retry limit.
func WithJobMaxRetries(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n >= 0 {
			o.maxRetries = &n
		}
	}
}

// WithJobRetryDelay overrides the job's base retry delay.
func WithJobRetryDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.retryDelay = &d
		}
	}
}

// WithBackoff toggles growing retry delays. Enabled by default; disabling
// makes every retry wait the flat base delay.
func WithBackoff(enabled bool) EnqueueOption {
	return func(o *enqueueOptions) {
		o.backoff = &enabled
	}
}

// WithJobPriority overrides the job's priority. Lower values run first.
func WithJobPriority(p int) EnqueueOption {
	return func(o *enqueueOptions) {
		if p >= 0 {
			o.priority = &p
		}
	}
}
