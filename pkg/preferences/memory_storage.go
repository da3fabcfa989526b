package preferences

import (
	"context"
	"maps"
	"sync"
)

// MemoryStorage is an in-memory Storage implementation for development and
// testing.
type MemoryStorage struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

// NewMemoryStorage creates an empty in-memory preference store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{prefs: make(map[string]Preferences)}
}

func (s *MemoryStorage) Get(ctx context.Context, userID string) (*Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.prefs[userID]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy maps so callers cannot mutate stored state.
	out := stored
	out.Channels = maps.Clone(stored.Channels)
	out.Categories = maps.Clone(stored.Categories)
	return &out, nil
}

func (s *MemoryStorage) Save(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := prefs
	stored.Channels = maps.Clone(prefs.Channels)
	stored.Categories = maps.Clone(prefs.Categories)
	s.prefs[prefs.UserID] = stored
	return nil
}
