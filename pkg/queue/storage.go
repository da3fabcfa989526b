package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the durable backing store for jobs. Implementations must make
// ClaimJobs atomic per job so that at most one worker holds a given job at a
// time; everything else the queue needs follows from that single guarantee.
type Storage interface {
	// CreateJob persists a new pending job.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimJobs atomically moves up to limit runnable jobs to the active
	// state, ordered by priority (lower first) then RunAt, and leases them
	// to workerID for lockDuration. Returns ErrNoJobToClaim when the
	// runnable set is empty.
	ClaimJobs(ctx context.Context, workerID uuid.UUID, limit int, lockDuration time.Duration) ([]*Job, error)

	// CompleteJob marks an active job as completed.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// RescheduleJob records the failure, increments the retry count, and
	// returns the job to the pending state, runnable at runAt.
	RescheduleJob(ctx context.Context, jobID uuid.UUID, errorMsg string, runAt time.Time) error

	// FailJob records the failure and marks the job terminally failed.
	FailJob(ctx context.Context, jobID uuid.UUID, errorMsg string) error

	// RetryFailed returns a terminally failed job to the runnable set with a
	// reset retry count. Returns ErrJobNotFailed for jobs in other states.
	RetryFailed(ctx context.Context, jobID uuid.UUID) error

	// GetJob loads one job by id.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// Stats returns current per-state job counts.
	Stats(ctx context.Context) (Stats, error)
}
