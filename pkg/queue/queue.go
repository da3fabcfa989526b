package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Queue is a durable, priority-aware job queue. Enqueue persists jobs to
// storage; Start runs a worker pool that claims runnable jobs and hands them
// to the handler, rescheduling retryable failures with backoff.
type Queue struct {
	storage Storage
	handler Handler

	workerID     uuid.UUID
	concurrency  int
	pollInterval time.Duration
	lockTimeout  time.Duration
	maxRetries   int
	retryDelay   time.Duration
	logger       *slog.Logger

	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopMu   sync.Mutex
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// New creates a queue over the given storage with the given job handler.
func New(storage Storage, handler Handler, opts ...Option) (*Queue, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}

	o := &options{
		concurrency:  10,
		pollInterval: time.Second,
		lockTimeout:  5 * time.Minute,
		maxRetries:   3,
		retryDelay:   30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Queue{
		storage:      storage,
		handler:      handler,
		workerID:     uuid.New(),
		concurrency:  o.concurrency,
		pollInterval: o.pollInterval,
		lockTimeout:  o.lockTimeout,
		maxRetries:   o.maxRetries,
		retryDelay:   o.retryDelay,
		logger:       o.logger,
		sem:          make(chan struct{}, o.concurrency),
	}, nil
}

// Enqueue persists a job and returns its id. The job's zero fields are
// filled from queue defaults; options override per-job scheduling.
func (q *Queue) Enqueue(ctx context.Context, job *Job, opts ...EnqueueOption) (uuid.UUID, error) {
	if job == nil {
		return uuid.Nil, ErrJobNil
	}

	o := &enqueueOptions{}
	for _, opt := range opts {
		opt(o)
	}

	stored := *job
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Status = StatusPending
	stored.CreatedAt = time.Now()
	stored.RunAt = stored.CreatedAt
	// Backoff defaults on; a flat retry cadence is the explicit opt-out.
	stored.Backoff = true
	if stored.MaxRetries == 0 {
		stored.MaxRetries = q.maxRetries
	}
	if stored.RetryDelay == 0 {
		stored.RetryDelay = q.retryDelay
	}

	if o.startAfter != nil {
		stored.RunAt = *o.startAfter
	}
	if o.maxRetries != nil {
		stored.MaxRetries = *o.maxRetries
	}
	if o.retryDelay != nil {
		stored.RetryDelay = *o.retryDelay
	}
	if o.backoff != nil {
		stored.Backoff = *o.backoff
	}
	if o.priority != nil {
		stored.Priority = *o.priority
	}

	if err := q.storage.CreateJob(ctx, &stored); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrJobCreate, err)
	}

	return stored.ID, nil
}

// EnqueueBatch enqueues jobs sequentially, preserving per-job fields. It is
// not transactional: on error the already-enqueued ids are returned alongside
// it and stay queued.
func (q *Queue) EnqueueBatch(ctx context.Context, jobs []*Job, opts ...EnqueueOption) ([]uuid.UUID, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	ids := make([]uuid.UUID, 0, len(jobs))
	for _, job := range jobs {
		id, err := q.Enqueue(ctx, job, opts...)
		if err != nil {
			return ids, fmt.Errorf("enqueue job %d of %d: %w", len(ids)+1, len(jobs), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Stats returns current per-state job counts.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	return q.storage.Stats(ctx)
}

// RetryFailed forces a terminally failed job back into the runnable set.
func (q *Queue) RetryFailed(ctx context.Context, jobID uuid.UUID) error {
	return q.storage.RetryFailed(ctx, jobID)
}

// Start launches the worker loop. Calling Start on a running queue returns
// ErrAlreadyStarted.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.stopping.Store(false)
	// Registered before mu is released so a concurrent Stop joins the
	// polling loop, not just the job goroutines.
	q.wg.Add(1)
	q.mu.Unlock()

	go q.run(runCtx)

	q.logger.Info("queue started",
		slog.String("worker_id", q.workerID.String()),
		slog.Int("concurrency", q.concurrency))

	return nil
}

// Stop drains in-flight jobs and halts the worker loop. Safe to call before
// Start (no-op) and safe to call repeatedly.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.cancel == nil {
		q.mu.Unlock()
		return nil
	}

	q.stopMu.Lock()
	q.stopping.Store(true)
	q.stopMu.Unlock()

	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()

	cancel()
	q.wg.Wait()

	q.logger.Info("queue stopped", slog.String("worker_id", q.workerID.String()))
	return nil
}

// Run returns a function suitable for errgroup: it starts the queue, blocks
// until the context is cancelled, then stops it.
func (q *Queue) Run(ctx context.Context) func() error {
	return func() error {
		if err := q.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return q.Stop()
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.pullBatch(ctx)
		}
	}
}

// pullBatch claims up to the number of free worker slots and processes each
// claimed job in its own goroutine.
func (q *Queue) pullBatch(ctx context.Context) {
	free := cap(q.sem) - len(q.sem)
	if free == 0 {
		return
	}

	jobs, err := q.storage.ClaimJobs(ctx, q.workerID, free, q.lockTimeout)
	if err != nil {
		if err != ErrNoJobToClaim && ctx.Err() == nil {
			q.logger.Error("failed to claim jobs",
				slog.String("worker_id", q.workerID.String()),
				slog.String("error", err.Error()))
		}
		return
	}

	for _, job := range jobs {
		select {
		case q.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		q.stopMu.Lock()
		if q.stopping.Load() {
			q.stopMu.Unlock()
			<-q.sem
			return
		}
		q.wg.Add(1)
		q.stopMu.Unlock()

		go func(job *Job) {
			defer q.wg.Done()
			defer func() { <-q.sem }()
			q.process(job)
		}(job)
	}
}

func (q *Queue) process(job *Job) {
	start := time.Now()

	var handlerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				handlerErr = MarkRetryable(fmt.Errorf("panic in handler: %v", r))
				q.logger.Error("job handler panicked",
					slog.String("job_id", job.ID.String()),
					slog.String("channel", job.Channel),
					slog.Any("panic", r))
			}
		}()

		// Detached from the worker lifecycle so graceful shutdown lets
		// in-flight jobs finish instead of cancelling them mid-send.
		ctx, cancel := context.WithTimeout(context.Background(), q.lockTimeout)
		defer cancel()
		handlerErr = q.handler.Handle(ctx, job)
	}()

	duration := time.Since(start)

	if handlerErr == nil {
		if err := q.storage.CompleteJob(context.Background(), job.ID); err != nil {
			q.logger.Error("failed to mark job completed",
				slog.String("job_id", job.ID.String()),
				slog.String("error", err.Error()))
		}
		q.logger.Info("job completed",
			slog.String("job_id", job.ID.String()),
			slog.String("channel", job.Channel),
			slog.Duration("duration", duration))
		return
	}

	q.handleFailure(job, handlerErr, duration)
}

// handleFailure reschedules retryable failures while retries remain and
// fails everything else terminally. The wait before attempt n is the job's
// base delay, scaled by n when backoff is on.
func (q *Queue) handleFailure(job *Job, handlerErr error, duration time.Duration) {
	retryable := IsRetryable(handlerErr)

	q.logger.Error("job failed",
		slog.String("job_id", job.ID.String()),
		slog.String("channel", job.Channel),
		slog.Int("retry_count", job.RetryCount),
		slog.Int("max_retries", job.MaxRetries),
		slog.Bool("retryable", retryable),
		slog.Duration("duration", duration),
		slog.String("error", handlerErr.Error()))

	if retryable && job.RetryCount < job.MaxRetries {
		delay := job.RetryDelay
		if job.Backoff {
			delay = time.Duration(job.RetryCount+1) * job.RetryDelay
		}
		runAt := time.Now().Add(delay)

		if err := q.storage.RescheduleJob(context.Background(), job.ID, handlerErr.Error(), runAt); err != nil {
			q.logger.Error("failed to reschedule job",
				slog.String("job_id", job.ID.String()),
				slog.String("error", err.Error()))
		}
		return
	}

	if err := q.storage.FailJob(context.Background(), job.ID, handlerErr.Error()); err != nil {
		q.logger.Error("failed to mark job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
}
