package queue

import "errors"

// retryableError marks a handler failure as transient. The queue reschedules
// marked failures while retries remain; everything else is terminal.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// MarkRetryable wraps err so the queue reschedules the job with backoff
// instead of failing it terminally. Wrapping nil returns nil.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err carries the retryable marker anywhere in
// its chain.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
