package queue

import "context"

// Handler processes claimed jobs. Returning nil completes the job; returning
// an error wrapped by MarkRetryable reschedules it with backoff while
// retries remain; any other error fails it terminally.
//
// Jobs are delivered at least once: a crash between handler completion and
// the storage write-back re-delivers the job after its lease expires, so
// handlers must tolerate repeats.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
