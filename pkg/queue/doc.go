// Package queue provides a durable, priority-aware job queue for
// notification delivery.
//
// Jobs are persisted through a Storage implementation (in-memory for tests,
// PostgreSQL for production) and processed by a pool of concurrent workers.
// Each job is claimed by exactly one worker at a time via a lease; leases
// that expire (worker crash, network partition) return the job to the
// runnable set, which makes delivery at-least-once rather than at-most-once.
// Handlers must therefore tolerate repeated invocations for the same job.
//
// Ordering is priority-first: lower priority values are served before higher
// ones, with older jobs preferred within a tier. Strict FIFO is not
// guaranteed across tiers or workers.
//
// Failure handling distinguishes transient from permanent errors. A handler
// returns MarkRetryable(err) to request rescheduling; the queue then applies
// the job's retry delay, scaled by the attempt number when backoff is
// enabled, until the retry limit is reached. Unmarked errors and exhausted
// retries move the job to the terminal failed state, from which RetryFailed
// can manually resurrect it.
//
// Basic usage:
//
//	store := queue.NewMemoryStorage()
//	q, err := queue.New(store, queue.HandlerFunc(deliver),
//		queue.WithConcurrency(10),
//		queue.WithRetryDelay(30*time.Second))
//	if err != nil {
//		return err
//	}
//	if err := q.Start(ctx); err != nil {
//		return err
//	}
//	defer q.Stop()
//
//	jobID, err := q.Enqueue(ctx, &queue.Job{
//		ID:       notificationID,
//		Channel:  "email",
//		Payload:  payload,
//		Priority: queue.PriorityNormal,
//	}, queue.WithStartAfter(time.Now().Add(time.Minute)))
package queue
