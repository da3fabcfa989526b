package notification

import (
	"context"

	"github.com/saasforge/notifykit/pkg/broadcast"
)

// Hub adapts a generic broadcaster to the per-user event contract. All
// events share one underlying stream; SubscribeUser filters it down to a
// single user's events, which keeps the fan-out non-blocking end to end.
type Hub struct {
	broadcaster broadcast.Broadcaster[Event]
}

// NewHub wraps a broadcaster (in-memory for a single process, Redis-backed
// for multi-instance deployments) as an event hub.
func NewHub(broadcaster broadcast.Broadcaster[Event]) *Hub {
	return &Hub{broadcaster: broadcaster}
}

// BroadcastToUser implements Broadcaster.
func (h *Hub) BroadcastToUser(ctx context.Context, userID string, event Event) error {
	event.UserID = userID
	return h.broadcaster.Broadcast(ctx, broadcast.Message[Event]{Data: event})
}

// SubscribeUser returns a channel of events for one user. The channel closes
// when the context is cancelled or the hub shuts down.
func (h *Hub) SubscribeUser(ctx context.Context, userID string) <-chan Event {
	sub := h.broadcaster.Subscribe(ctx)
	out := make(chan Event)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Receive(ctx):
				if !ok {
					return
				}
				if msg.Data.UserID != userID {
					continue
				}
				select {
				case out <- msg.Data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close shuts down the underlying broadcaster.
func (h *Hub) Close() error {
	return h.broadcaster.Close()
}
