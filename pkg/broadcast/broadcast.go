package broadcast

import (
	"context"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	// The context allows implementations to respect cancellation during
	// blocking operations; the in-memory implementation ignores it.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources. After Close the
	// receive channel is closed. Close is idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers. Implementations must
// handle slow consumers gracefully, dropping messages rather than blocking
// the publisher.
type Broadcaster[T any] interface {
	// Subscribe creates a new subscriber that receives all subsequent
	// broadcast messages. Cancelling the context cleans up the subscription.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast sends a message to all active subscribers. Messages may be
	// dropped for subscribers whose buffers are full.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}
