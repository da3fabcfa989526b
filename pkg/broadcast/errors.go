package broadcast

import "errors"

var (
	// ErrBroadcasterClosed is returned when broadcasting on a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcast: broadcaster is closed")

	// ErrEncodeMessage is returned when a message cannot be serialized for transport.
	ErrEncodeMessage = errors.New("broadcast: failed to encode message")
)
