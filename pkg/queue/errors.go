package queue

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrHandlerNil is returned when a nil handler is provided.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrJobNil is returned when attempting to enqueue a nil job.
	ErrJobNil = errors.New("job cannot be nil")

	// ErrNoJobs is returned when batch enqueue is called with no jobs.
	ErrNoJobs = errors.New("no jobs to enqueue")

	// ErrJobCreate is returned when persisting a job fails.
	ErrJobCreate = errors.New("failed to create job in storage")

	// ErrNoJobToClaim signals an empty runnable set. Workers treat it as a
	// normal idle tick, not a failure.
	ErrNoJobToClaim = errors.New("no job available to claim")

	// ErrJobNotFound is returned when a job id has no row in storage.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotFailed is returned by RetryFailed when the job is not in the
	// failed state.
	ErrJobNotFailed = errors.New("job is not in failed state")

	// ErrAlreadyStarted is returned when Start is called on a running queue.
	ErrAlreadyStarted = errors.New("queue already started")
)
