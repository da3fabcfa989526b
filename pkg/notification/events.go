package notification

import (
	"context"
	"time"
)

// EventType identifies a live-update event sent to the owning user.
type EventType string

const (
	EventCreated     EventType = "notification.created"
	EventRead        EventType = "notification.read"
	EventUnread      EventType = "notification.unread"
	EventReadAll     EventType = "notification.read_all"
	EventDeleted     EventType = "notification.deleted"
	EventUnreadCount EventType = "notification.unread_count"
)

// Event is a live-update message about a notification state change.
// UnreadCount is meaningful only for EventUnreadCount and EventReadAll.
type Event struct {
	Type           EventType `json:"type"`
	UserID         string    `json:"user_id"`
	NotificationID string    `json:"notification_id,omitempty"`
	UnreadCount    int       `json:"unread_count,omitempty"`
	At             time.Time `json:"at"`
}

// Broadcaster pushes events to a user's live connections. Delivery is
// fire-and-forget: failures must not abort the operation that produced the
// event, so the service only logs them.
type Broadcaster interface {
	BroadcastToUser(ctx context.Context, userID string, event Event) error
}
