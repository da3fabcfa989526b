package notification

import "errors"

var (
	// ErrStorageNil is returned when the service is constructed without
	// storage.
	ErrStorageNil = errors.New("notification storage cannot be nil")

	// ErrRegistryNil is returned when the service is constructed without a
	// provider registry.
	ErrRegistryNil = errors.New("provider registry cannot be nil")

	// ErrNotFound is returned when a notification id has no record.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidChannel is returned for requests naming an unknown channel.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidCategory is returned for requests naming an unknown category.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidPriority is returned for requests naming an unknown priority.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrUnknownTemplate is returned when the request references a template
	// id the renderer does not recognize.
	ErrUnknownTemplate = errors.New("unknown template id")

	// ErrNoTargets is returned when a bulk request has no user ids.
	ErrNoTargets = errors.New("bulk request has no target users")

	// ErrStatusFinal is returned by storage when a delivery update would
	// overwrite a sent record.
	ErrStatusFinal = errors.New("delivery status is final")
)
