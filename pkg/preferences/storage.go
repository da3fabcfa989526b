package preferences

import "context"

// Storage persists per-user preference rows.
type Storage interface {
	// Get returns the stored preferences for a user, or ErrNotFound when the
	// user has never saved any.
	Get(ctx context.Context, userID string) (*Preferences, error)

	// Save stores the full preference set for a user, replacing any
	// previous row.
	Save(ctx context.Context, prefs Preferences) error
}
