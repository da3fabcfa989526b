package preferences

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saasforge/notifykit/pkg/pg"
)

// PGStorage is a PostgreSQL Storage implementation backed by the
// notification_preferences table (see migrations/).
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed preference store.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) Get(ctx context.Context, userID string) (*Preferences, error) {
	const query = `
		SELECT user_id, channels, categories, updated_at
		FROM notification_preferences
		WHERE user_id = $1`

	var prefs Preferences
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.Channels, &prefs.Categories, &prefs.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preferences for user %s: %w", userID, err)
	}
	return &prefs, nil
}

func (s *PGStorage) Save(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return ErrEmptyUserID
	}

	const query = `
		INSERT INTO notification_preferences (user_id, channels, categories, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET channels = EXCLUDED.channels,
		    categories = EXCLUDED.categories,
		    updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query, prefs.UserID, prefs.Channels, prefs.Categories, prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save preferences for user %s: %w", prefs.UserID, err)
	}
	return nil
}
