package email

import "errors"

var (
	// ErrFailedToSendEmail wraps transport-level delivery failures. These are
	// usually transient (network, rate limit) and safe to retry.
	ErrFailedToSendEmail = errors.New("email: failed to send email")

	// ErrRejected wraps failures where the provider accepted the request but
	// rejected the message (bad recipient, suppressed address, bad payload).
	// Retrying without changing the message will not help.
	ErrRejected = errors.New("email: message rejected by provider")

	// ErrInvalidParams is returned when SendEmailParams fail validation.
	ErrInvalidParams = errors.New("email: invalid send parameters")

	// ErrInvalidConfig is returned when a sender is constructed with
	// incomplete configuration.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrUnknownTransport is returned by New for an unrecognized Transport value.
	ErrUnknownTransport = errors.New("email: unknown transport")
)
