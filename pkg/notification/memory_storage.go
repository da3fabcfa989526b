package notification

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage for tests and local development.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*Notification
}

// NewMemoryStorage creates an empty in-memory notification store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*Notification)}
}

func (ms *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	recordCopy := *n
	ms.records[n.ID] = &recordCopy
	return nil
}

func (ms *MemoryStorage) GetByID(ctx context.Context, id string) (*Notification, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	record, exists := ms.records[id]
	if !exists {
		return nil, ErrNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (ms *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var matched []Notification
	for _, record := range ms.records {
		if record.UserID != userID || record.DeletedAt != nil {
			continue
		}
		if opts.OnlyUnread && record.ReadAt != nil {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, record.Category) {
			continue
		}
		matched = append(matched, *record)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	return matched, nil
}

func (ms *MemoryStorage) UpdateDelivery(ctx context.Context, id string, update DeliveryUpdate) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, exists := ms.records[id]
	if !exists {
		return ErrNotFound
	}
	if !record.Status.CanTransitionTo(update.Status) {
		return ErrStatusFinal
	}

	record.Status = update.Status
	record.StatusMessage = update.StatusMessage
	record.Provider = update.Provider
	record.ProviderMessageID = update.ProviderMessageID
	record.UpdatedAt = update.At

	at := update.At
	switch update.Status {
	case StatusSent:
		record.SentAt = &at
	case StatusFailed:
		record.FailedAt = &at
	}
	return nil
}

func (ms *MemoryStorage) SetRead(ctx context.Context, id string, readAt *time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, exists := ms.records[id]
	if !exists {
		return ErrNotFound
	}

	record.ReadAt = readAt
	record.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryStorage) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	count := 0
	for _, record := range ms.records {
		if record.UserID != userID || record.DeletedAt != nil || record.ReadAt != nil {
			continue
		}
		at := readAt
		record.ReadAt = &at
		record.UpdatedAt = readAt
		count++
	}
	return count, nil
}

func (ms *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	count := 0
	for _, record := range ms.records {
		if record.UserID == userID && record.ReadAt == nil && record.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (ms *MemoryStorage) SetDeleted(ctx context.Context, id string, deletedAt *time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, exists := ms.records[id]
	if !exists {
		return ErrNotFound
	}

	record.DeletedAt = deletedAt
	record.UpdatedAt = time.Now()
	return nil
}
