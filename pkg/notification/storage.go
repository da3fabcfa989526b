package notification

import (
	"context"
	"time"
)

// ListOptions paginates and filters history queries.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	Categories []Category
}

// DeliveryUpdate carries the outcome of one delivery attempt onto the
// notification record. At stamps SentAt or FailedAt depending on Status.
type DeliveryUpdate struct {
	Status            Status
	StatusMessage     string
	Provider          string
	ProviderMessageID string
	At                time.Time
}

// Storage persists notification records.
//
// UpdateDelivery must enforce the status machine: updates against a record
// whose current status forbids the transition return ErrStatusFinal. This
// guard lives in storage because queued delivery writes race with nothing
// else only as long as the predicate and the write are one operation.
type Storage interface {
	// Create inserts a new record.
	Create(ctx context.Context, n *Notification) error

	// GetByID returns the record regardless of soft-delete state.
	GetByID(ctx context.Context, id string) (*Notification, error)

	// List returns the user's non-deleted records, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// UpdateDelivery applies a delivery outcome, respecting the status
	// machine.
	UpdateDelivery(ctx context.Context, id string, update DeliveryUpdate) error

	// SetRead sets or clears the read marker. Passing nil marks unread.
	SetRead(ctx context.Context, id string, readAt *time.Time) error

	// MarkAllRead stamps readAt on every unread, non-deleted record owned by
	// the user and returns the affected count.
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error)

	// CountUnread counts unread, non-deleted records for the user.
	CountUnread(ctx context.Context, userID string) (int, error)

	// SetDeleted sets or clears the soft-delete marker. Passing nil
	// restores.
	SetDeleted(ctx context.Context, id string, deletedAt *time.Time) error
}
