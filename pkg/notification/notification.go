package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/saasforge/notifykit/pkg/provider"
	"github.com/saasforge/notifykit/pkg/queue"
)

// Category is a notification's semantic class, used for preference gating
// independently of the delivery channel.
type Category string

const (
	CategoryTransactional Category = "transactional"
	CategoryMarketing     Category = "marketing"
	CategorySecurity      Category = "security"
	CategorySystem        Category = "system"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransactional, CategoryMarketing, CategorySecurity, CategorySystem:
		return true
	}
	return false
}

// Priority governs queue ordering and whether delivery bypasses the queue.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// QueueOrder maps the priority tier to the queue's numeric ordering, lower
// served first.
func (p Priority) QueueOrder() int {
	switch p {
	case PriorityUrgent:
		return queue.PriorityUrgent
	case PriorityHigh:
		return queue.PriorityHigh
	case PriorityLow:
		return queue.PriorityLow
	}
	return queue.PriorityNormal
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// CanTransitionTo reports whether the delivery status may move to next.
// Pending resolves to sent or failed; a failed record may be overwritten by
// a later retry outcome; sent is final.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusSent || next == StatusFailed
	case StatusFailed:
		return next == StatusSent || next == StatusFailed
	}
	return false
}

// Recipient carries the channel-appropriate delivery addresses. Denormalized
// onto the notification record for audit.
type Recipient struct {
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	TelegramChatID string `json:"telegram_chat_id,omitempty"`
	DeviceToken    string `json:"device_token,omitempty"`
}

// Notification is the durable record of one delivery attempt or in-app post.
type Notification struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`

	Channel  provider.Channel `json:"channel"`
	Category Category         `json:"category"`
	Priority Priority         `json:"priority"`

	// Content is either a template reference or raw fields; payload build
	// prefers the template when TemplateID validates.
	TemplateID   string         `json:"template_id,omitempty"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	Body         string         `json:"body,omitempty"`
	HTMLBody     string         `json:"html_body,omitempty"`

	Recipient Recipient `json:"recipient"`

	Status            Status     `json:"status"`
	StatusMessage     string     `json:"status_message,omitempty"`
	Provider          string     `json:"provider,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`

	ReadAt    *time.Time `json:"read_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CampaignID string    `json:"campaign_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool { return n.ReadAt != nil }

// IsDeleted reports whether the notification is soft-deleted.
func (n *Notification) IsDeleted() bool { return n.DeletedAt != nil }

// NewID generates a notification id.
func NewID() string { return uuid.New().String() }
