package preferences

import (
	"context"
	"log/slog"
	"time"
)

// Preferences holds a user's explicit notification opt-outs. Channels and
// categories absent from the maps are enabled: the model is opt-out, not
// opt-in, so a user with no stored row receives everything.
type Preferences struct {
	UserID     string          `json:"user_id"`
	Channels   map[string]bool `json:"channels"`
	Categories map[string]bool `json:"categories"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Patch is a partial preferences update. Only keys present in the maps are
// written; existing keys not mentioned keep their value.
type Patch struct {
	Channels   map[string]bool `json:"channels,omitempty"`
	Categories map[string]bool `json:"categories,omitempty"`
}

// Service answers the two gating questions the dispatch path asks before any
// external delivery: is this channel enabled for the user, and is this
// category enabled for the user.
type Service struct {
	storage Storage
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a preference service backed by the given storage.
func NewService(storage Storage, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	s := &Service{
		storage: storage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsChannelEnabled reports whether the user accepts deliveries over the
// given channel. Users without stored preferences default to enabled.
func (s *Service) IsChannelEnabled(ctx context.Context, userID, channel string) (bool, error) {
	prefs, err := s.storage.Get(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return true, nil
		}
		return false, err
	}

	enabled, ok := prefs.Channels[channel]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

// IsCategoryEnabled reports whether the user accepts notifications of the
// given category. Users without stored preferences default to enabled.
func (s *Service) IsCategoryEnabled(ctx context.Context, userID, category string) (bool, error) {
	prefs, err := s.storage.Get(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return true, nil
		}
		return false, err
	}

	enabled, ok := prefs.Categories[category]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

// Get returns the user's stored preferences. A user with no stored row gets
// an empty (all-enabled) Preferences value, not an error.
func (s *Service) Get(ctx context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return Preferences{}, ErrEmptyUserID
	}

	prefs, err := s.storage.Get(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return Preferences{
				UserID:     userID,
				Channels:   map[string]bool{},
				Categories: map[string]bool{},
			}, nil
		}
		return Preferences{}, err
	}
	return *prefs, nil
}

// Upsert merges the patch into the user's stored preferences and returns the
// result. Creating the row on first write.
func (s *Service) Upsert(ctx context.Context, userID string, patch Patch) (Preferences, error) {
	if userID == "" {
		return Preferences{}, ErrEmptyUserID
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}

	for ch, enabled := range patch.Channels {
		current.Channels[ch] = enabled
	}
	for cat, enabled := range patch.Categories {
		current.Categories[cat] = enabled
	}
	current.UpdatedAt = time.Now()

	if err := s.storage.Save(ctx, current); err != nil {
		return Preferences{}, err
	}

	s.logger.DebugContext(ctx, "preferences updated",
		slog.String("user_id", userID),
		slog.Int("channel_overrides", len(current.Channels)),
		slog.Int("category_overrides", len(current.Categories)))

	return current, nil
}
