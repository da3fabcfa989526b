package provider

import "errors"

// Code classifies a dispatch failure. The set is shared by providers, the
// queue, and the notification service so that callers see one taxonomy.
type Code string

const (
	// CodeOptedOut: the user disabled this channel or category. Never retried.
	CodeOptedOut Code = "optedOut"

	// CodeProviderNotConfigured: no provider is configured for the channel.
	// A deployment gap, not a transient fault.
	CodeProviderNotConfigured Code = "providerNotConfigured"

	// CodeMissingFrom: the provider has no sender identity configured.
	CodeMissingFrom Code = "missingFrom"

	// CodeInvalidPayload: the payload failed structural validation.
	CodeInvalidPayload Code = "invalidPayload"

	// CodeSendFailed: the delivery attempt failed. Retryable unless the
	// provider classified the failure as permanent.
	CodeSendFailed Code = "sendFailed"

	// CodeUnknownChannel: the channel tag is not recognized. Programming error.
	CodeUnknownChannel Code = "unknownChannel"
)

var (
	// ErrPayloadType is returned by ValidatePayload when the payload type
	// does not match the provider's channel.
	ErrPayloadType = errors.New("provider: payload type does not match channel")

	// ErrMissingField is returned by ValidatePayload when a required payload
	// field is empty.
	ErrMissingField = errors.New("provider: required payload field missing")
)
