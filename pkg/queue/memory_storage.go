package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for tests and local development. A
// background sweep returns jobs with expired leases to the runnable set so
// crashed workers cannot strand work.
type MemoryStorage struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job

	sweepTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryStorage creates an in-memory job store.
func NewMemoryStorage() *MemoryStorage {
	ms := &MemoryStorage{
		jobs: make(map[uuid.UUID]*Job),
		done: make(chan struct{}),
	}

	ms.sweepTicker = time.NewTicker(time.Second)
	go ms.sweepLoop()

	return ms
}

// Close stops the lease sweep goroutine.
func (ms *MemoryStorage) Close() error {
	ms.closeOnce.Do(func() {
		close(ms.done)
		ms.sweepTicker.Stop()
	})
	return nil
}

func (ms *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrJobNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	jobCopy := *job
	ms.jobs[job.ID] = &jobCopy
	return nil
}

func (ms *MemoryStorage) ClaimJobs(ctx context.Context, workerID uuid.UUID, limit int, lockDuration time.Duration) ([]*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var runnable []*Job
	for _, job := range ms.jobs {
		if job.Status != StatusPending {
			continue
		}
		if job.RunAt.After(now) {
			continue
		}
		runnable = append(runnable, job)
	}

	if len(runnable) == 0 {
		return nil, ErrNoJobToClaim
	}

	// Priority first, lower wins; RunAt breaks ties so older work within a
	// tier is preferred.
	sort.Slice(runnable, func(i, j int) bool {
		if runnable[i].Priority != runnable[j].Priority {
			return runnable[i].Priority < runnable[j].Priority
		}
		return runnable[i].RunAt.Before(runnable[j].RunAt)
	})

	if limit < len(runnable) {
		runnable = runnable[:limit]
	}

	lockUntil := now.Add(lockDuration)
	claimed := make([]*Job, 0, len(runnable))
	for _, job := range runnable {
		job.Status = StatusActive
		job.LockedUntil = &lockUntil
		job.LockedBy = &workerID

		jobCopy := *job
		claimed = append(claimed, &jobCopy)
	}

	return claimed, nil
}

func (ms *MemoryStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}

	now := time.Now()
	job.Status = StatusCompleted
	job.ProcessedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

func (ms *MemoryStorage) RescheduleJob(ctx context.Context, jobID uuid.UUID, errorMsg string, runAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}

	job.RetryCount++
	job.LastError = &errorMsg
	job.Status = StatusPending
	job.RunAt = runAt
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

func (ms *MemoryStorage) FailJob(ctx context.Context, jobID uuid.UUID, errorMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}

	now := time.Now()
	job.Status = StatusFailed
	job.LastError = &errorMsg
	job.ProcessedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

func (ms *MemoryStorage) RetryFailed(ctx context.Context, jobID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	if job.Status != StatusFailed {
		return ErrJobNotFailed
	}

	job.Status = StatusPending
	job.RetryCount = 0
	job.RunAt = time.Now()
	job.ProcessedAt = nil
	return nil
}

func (ms *MemoryStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}

	jobCopy := *job
	return &jobCopy, nil
}

func (ms *MemoryStorage) Stats(ctx context.Context) (Stats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var stats Stats
	for _, job := range ms.jobs {
		switch job.Status {
		case StatusPending:
			stats.Pending++
		case StatusActive:
			stats.Active++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// sweepLoop recovers jobs from dead workers. Without it a crashed worker's
// claimed jobs would stay active forever.
func (ms *MemoryStorage) sweepLoop() {
	for {
		select {
		case <-ms.sweepTicker.C:
			ms.expireLeases()
		case <-ms.done:
			return
		}
	}
}

func (ms *MemoryStorage) expireLeases() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for _, job := range ms.jobs {
		if job.Status == StatusActive && job.LockedUntil != nil && job.LockedUntil.Before(now) {
			job.Status = StatusPending
			job.LockedUntil = nil
			job.LockedBy = nil
		}
	}
}
