package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Numeric priority tiers, lower runs first. Values between the named tiers
// are valid; they are plain ordering keys, not an enum.
const (
	PriorityUrgent = 0
	PriorityHigh   = 1
	PriorityNormal = 2
	PriorityLow    = 3
)

// Job is one unit of delivery work. The ID doubles as the key of the record
// the handler updates after processing, so callers set it; Enqueue assigns
// one only when the caller left it zero.
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Channel    string          `json:"channel"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Priority   int             `json:"priority"`
	Category   string          `json:"category,omitempty"`
	Status     Status          `json:"status"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`

	// RetryDelay and Backoff shape rescheduling: the wait before attempt n
	// is RetryDelay, multiplied by n when Backoff is set.
	RetryDelay time.Duration `json:"retry_delay"`
	Backoff    bool          `json:"backoff"`

	// RunAt gates visibility: a job is claimable only once RunAt has passed.
	RunAt       time.Time  `json:"run_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID `json:"locked_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Stats is a point-in-time view of the queue for observability.
type Stats struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
