package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasforge/notifykit/pkg/queue"
)

func pendingJob(priority int) *queue.Job {
	return &queue.Job{
		ID:         uuid.New(),
		Channel:    "email",
		Payload:    []byte(`{}`),
		Priority:   priority,
		Status:     queue.StatusPending,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Backoff:    true,
		RunAt:      time.Now(),
		CreatedAt:  time.Now(),
	}
}

func TestMemoryStorageClaim(t *testing.T) {
	t.Parallel()

	t.Run("serves lower priority values first", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		low := pendingJob(queue.PriorityLow)
		urgent := pendingJob(queue.PriorityUrgent)
		normal := pendingJob(queue.PriorityNormal)
		for _, j := range []*queue.Job{low, urgent, normal} {
			require.NoError(t, store.CreateJob(ctx, j))
		}

		claimed, err := store.ClaimJobs(ctx, uuid.New(), 2, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 2)
		assert.Equal(t, urgent.ID, claimed[0].ID)
		assert.Equal(t, normal.ID, claimed[1].ID)
	})

	t.Run("claimed jobs are not claimable again", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		require.NoError(t, store.CreateJob(ctx, pendingJob(queue.PriorityNormal)))

		_, err := store.ClaimJobs(ctx, uuid.New(), 10, time.Minute)
		require.NoError(t, err)

		_, err = store.ClaimJobs(ctx, uuid.New(), 10, time.Minute)
		require.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("future run_at hides the job", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		job.RunAt = time.Now().Add(time.Hour)
		require.NoError(t, store.CreateJob(ctx, job))

		_, err := store.ClaimJobs(ctx, uuid.New(), 10, time.Minute)
		require.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("expired lease returns the job to the runnable set", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		require.NoError(t, store.CreateJob(ctx, job))

		_, err := store.ClaimJobs(ctx, uuid.New(), 1, 10*time.Millisecond)
		require.NoError(t, err)

		// The sweep runs every second; the lease above expires well before.
		assert.Eventually(t, func() bool {
			claimed, err := store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
			return err == nil && len(claimed) == 1 && claimed[0].ID == job.ID
		}, 3*time.Second, 100*time.Millisecond)
	})
}

func TestMemoryStorageTransitions(t *testing.T) {
	t.Parallel()

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		require.NoError(t, store.CreateJob(ctx, job))
		_, err := store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.NoError(t, err)

		require.NoError(t, store.CompleteJob(ctx, job.ID))

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusCompleted, got.Status)
		assert.NotNil(t, got.ProcessedAt)
		assert.Nil(t, got.LockedUntil)
	})

	t.Run("reschedule increments retries and defers visibility", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		require.NoError(t, store.CreateJob(ctx, job))
		_, err := store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.NoError(t, err)

		runAt := time.Now().Add(time.Hour)
		require.NoError(t, store.RescheduleJob(ctx, job.ID, "connection reset", runAt))

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusPending, got.Status)
		assert.Equal(t, 1, got.RetryCount)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "connection reset", *got.LastError)

		_, err = store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("fail is terminal until retried manually", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		require.NoError(t, store.CreateJob(ctx, job))
		_, err := store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.FailJob(ctx, job.ID, "invalid recipient"))

		_, err = store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.ErrorIs(t, err, queue.ErrNoJobToClaim)

		require.NoError(t, store.RetryFailed(ctx, job.ID))

		claimed, err := store.ClaimJobs(ctx, uuid.New(), 1, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, 0, claimed[0].RetryCount)
	})

	t.Run("retry of a non-failed job is rejected", func(t *testing.T) {
		t.Parallel()

		store := queue.NewMemoryStorage()
		defer store.Close()
		ctx := context.Background()

		job := pendingJob(queue.PriorityNormal)
		require.NoError(t, store.CreateJob(ctx, job))

		require.ErrorIs(t, store.RetryFailed(ctx, job.ID), queue.ErrJobNotFailed)
		require.ErrorIs(t, store.RetryFailed(ctx, uuid.New()), queue.ErrJobNotFound)
	})
}

func TestMemoryStorageStats(t *testing.T) {
	t.Parallel()

	store := queue.NewMemoryStorage()
	defer store.Close()
	ctx := context.Background()

	a := pendingJob(queue.PriorityNormal)
	b := pendingJob(queue.PriorityNormal)
	c := pendingJob(queue.PriorityNormal)
	for _, j := range []*queue.Job{a, b, c} {
		require.NoError(t, store.CreateJob(ctx, j))
	}

	claimed, err := store.ClaimJobs(ctx, uuid.New(), 2, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	require.NoError(t, store.CompleteJob(ctx, claimed[0].ID))
	require.NoError(t, store.FailJob(ctx, claimed[1].ID, "boom"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Stats{Pending: 1, Active: 0, Completed: 1, Failed: 1}, stats)
}
