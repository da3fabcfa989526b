package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/saasforge/notifykit/pkg/logger"
	"github.com/saasforge/notifykit/pkg/provider"
	"github.com/saasforge/notifykit/pkg/queue"
)

// Dispatcher is the queue handler for notification jobs: it decodes the
// job's payload, sends it through the provider registry, and reconciles the
// outcome back onto the notification record.
//
// Retryable provider failures are signalled back to the queue so the job is
// rescheduled with backoff; everything else is terminal. Delivery is
// at-least-once: a reschedule can repeat a send whose write-back was lost.
type Dispatcher struct {
	storage  Storage
	registry *provider.Registry
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a queue handler that delivers notification jobs.
func NewDispatcher(storage Storage, registry *provider.Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}

	d := &Dispatcher{
		storage:  storage,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Handle implements queue.Handler.
func (d *Dispatcher) Handle(ctx context.Context, job *queue.Job) error {
	ch := provider.Channel(job.Channel)
	notificationID := job.ID.String()

	payload, err := provider.DecodePayload(ch, job.Payload)
	if err != nil {
		// Undecodable payloads fail identically on every attempt.
		result := provider.Failure(provider.CodeInvalidPayload, err.Error(), false)
		d.writeOutcome(ctx, notificationID, ch, result)
		return nil
	}

	result := d.registry.Send(ctx, ch, payload)
	d.writeOutcome(ctx, notificationID, ch, result)

	if !result.Success && result.Error != nil && result.Error.Retryable {
		return queue.MarkRetryable(result.Error)
	}
	return nil
}

// writeOutcome records the delivery result. Errors are logged and swallowed:
// the delivery happened, and failing to record it is not a reason to
// re-deliver.
func (d *Dispatcher) writeOutcome(ctx context.Context, notificationID string, ch provider.Channel, result provider.Result) {
	providerName := string(ch)
	if p := d.registry.ForChannel(ch); p != nil {
		providerName = p.Name()
	}

	update := DeliveryUpdate{
		Status:            StatusSent,
		Provider:          providerName,
		ProviderMessageID: result.MessageID,
		At:                time.Now(),
	}
	if !result.Success {
		update.Status = StatusFailed
		if result.Error != nil {
			update.StatusMessage = result.Error.Error()
		}
	}

	if err := d.storage.UpdateDelivery(ctx, notificationID, update); err != nil {
		d.logger.ErrorContext(ctx, "failed to record delivery outcome",
			slog.String("notification_id", notificationID),
			logger.Channel(string(ch)),
			logger.Error(err))
	}
}
