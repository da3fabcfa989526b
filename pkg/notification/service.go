package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saasforge/notifykit/pkg/logger"
	"github.com/saasforge/notifykit/pkg/preferences"
	"github.com/saasforge/notifykit/pkg/provider"
	"github.com/saasforge/notifykit/pkg/queue"
	"github.com/saasforge/notifykit/pkg/template"
)

// SendRequest describes one notification to dispatch.
type SendRequest struct {
	UserID   string           `json:"user_id,omitempty"`
	Channel  provider.Channel `json:"channel"`
	Category Category         `json:"category"`
	Priority Priority         `json:"priority,omitempty"`

	TemplateID   string         `json:"template_id,omitempty"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	Body         string         `json:"body,omitempty"`
	HTMLBody     string         `json:"html_body,omitempty"`

	Recipient Recipient `json:"recipient"`

	// CampaignID groups records of one bulk send. SendBulk stamps it;
	// direct callers normally leave it empty.
	CampaignID string `json:"campaign_id,omitempty"`
}

// SendResult is the caller-visible outcome of a send. Provider is "queue"
// when the job was enqueued for asynchronous delivery.
type SendResult struct {
	Success        bool            `json:"success"`
	NotificationID string          `json:"notification_id"`
	Provider       string          `json:"provider,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
	Error          *provider.Error `json:"error,omitempty"`
}

// BulkRequest targets several users with one notification. Recipients maps
// user ids to their channel addresses.
type BulkRequest struct {
	UserIDs  []string         `json:"user_ids"`
	Channel  provider.Channel `json:"channel"`
	Category Category         `json:"category"`
	Priority Priority         `json:"priority,omitempty"`

	TemplateID   string         `json:"template_id,omitempty"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	Body         string         `json:"body,omitempty"`
	HTMLBody     string         `json:"html_body,omitempty"`

	Recipients map[string]Recipient `json:"recipients,omitempty"`
}

// BulkResult summarizes a bulk send.
type BulkResult struct {
	Queued     int    `json:"queued"`
	Skipped    int    `json:"skipped"`
	CampaignID string `json:"campaign_id"`
}

// Service orchestrates notification dispatch: preference gating, payload
// construction, record persistence, queue-vs-direct delivery, and the
// read/unread/delete/restore lifecycle with live-update events.
//
// The service is stateless between calls; all cross-call state lives in
// storage, so one instance is safe for concurrent use.
type Service struct {
	storage     Storage
	registry    *provider.Registry
	prefs       *preferences.Service
	renderer    template.Renderer
	queue       *queue.Queue
	broadcaster Broadcaster
	logger      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPreferences enables per-user opt-out gating.
func WithPreferences(prefs *preferences.Service) ServiceOption {
	return func(s *Service) { s.prefs = prefs }
}

// WithRenderer enables template-based payload construction.
func WithRenderer(renderer template.Renderer) ServiceOption {
	return func(s *Service) { s.renderer = renderer }
}

// WithQueue routes non-urgent external deliveries through the job queue.
func WithQueue(q *queue.Queue) ServiceOption {
	return func(s *Service) { s.queue = q }
}

// WithBroadcaster enables live-update events to the owning user.
func WithBroadcaster(b Broadcaster) ServiceOption {
	return func(s *Service) { s.broadcaster = b }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a notification service. Storage and registry are
// required; everything else is an optional capability.
func NewService(storage Storage, registry *provider.Registry, opts ...ServiceOption) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}

	s := &Service{
		storage:  storage,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send dispatches one notification. The record is persisted for every
// accepted request, including opted-out ones, so in-app history stays
// complete regardless of external delivery.
func (s *Service) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := s.validateRequest(req.Channel, &req.Category, &req.Priority, req.TemplateID); err != nil {
		return SendResult{}, err
	}

	now := time.Now()
	n := &Notification{
		ID:           NewID(),
		UserID:       req.UserID,
		Channel:      req.Channel,
		Category:     req.Category,
		Priority:     req.Priority,
		TemplateID:   req.TemplateID,
		TemplateData: req.TemplateData,
		Subject:      req.Subject,
		Body:         req.Body,
		HTMLBody:     req.HTMLBody,
		Recipient:    req.Recipient,
		Status:       StatusPending,
		CampaignID:   req.CampaignID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Preference gates apply only to identified users; system broadcasts
	// have no one to opt out.
	if req.UserID != "" && !s.allowedByPreferences(ctx, req.UserID, req.Channel, req.Category) {
		failedAt := now
		n.Status = StatusFailed
		n.StatusMessage = string(provider.CodeOptedOut)
		n.FailedAt = &failedAt
		if err := s.storage.Create(ctx, n); err != nil {
			return SendResult{}, fmt.Errorf("persist notification: %w", err)
		}
		s.emit(ctx, req.UserID, Event{Type: EventCreated, NotificationID: n.ID, At: now})

		return SendResult{
			NotificationID: n.ID,
			Error: &provider.Error{
				Code:    provider.CodeOptedOut,
				Message: "user disabled this channel or category",
			},
		}, nil
	}

	payload, err := s.buildPayload(ctx, req)
	if err != nil {
		return SendResult{}, err
	}
	if payload != nil {
		n.Subject, n.Body, n.HTMLBody = renderedContent(payload, n)
	}

	if err := s.storage.Create(ctx, n); err != nil {
		return SendResult{}, fmt.Errorf("persist notification: %w", err)
	}
	s.emit(ctx, req.UserID, Event{Type: EventCreated, NotificationID: n.ID, At: now})

	// In-app-only records have nothing to deliver.
	if req.Channel == provider.ChannelNone {
		s.applyDelivery(ctx, n.ID, provider.Success("in-app"), "none")
		return SendResult{Success: true, NotificationID: n.ID, Provider: "none", MessageID: "in-app"}, nil
	}

	// Urgent sends cannot tolerate queue latency; everything else goes
	// through the queue when one is configured.
	if s.queue != nil && req.Priority != PriorityUrgent {
		return s.enqueue(ctx, n, payload)
	}

	result := s.registry.Send(ctx, req.Channel, payload)
	providerName := s.providerName(req.Channel)
	s.applyDelivery(ctx, n.ID, result, providerName)

	return SendResult{
		Success:        result.Success,
		NotificationID: n.ID,
		Provider:       providerName,
		MessageID:      result.MessageID,
		Error:          result.Error,
	}, nil
}

// SendBulk dispatches one notification to each target user, re-checking
// preferences per user. Duplicate user ids are collapsed. All records share
// one campaign id.
func (s *Service) SendBulk(ctx context.Context, req BulkRequest) (BulkResult, error) {
	if len(req.UserIDs) == 0 {
		return BulkResult{}, ErrNoTargets
	}
	if err := s.validateRequest(req.Channel, &req.Category, &req.Priority, req.TemplateID); err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{CampaignID: uuid.New().String()}
	seen := make(map[string]struct{}, len(req.UserIDs))

	for _, userID := range req.UserIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		if !s.allowedByPreferences(ctx, userID, req.Channel, req.Category) {
			result.Skipped++
			continue
		}

		sendRes, err := s.Send(ctx, SendRequest{
			UserID:       userID,
			Channel:      req.Channel,
			Category:     req.Category,
			Priority:     req.Priority,
			TemplateID:   req.TemplateID,
			TemplateData: req.TemplateData,
			Subject:      req.Subject,
			Body:         req.Body,
			HTMLBody:     req.HTMLBody,
			Recipient:    req.Recipients[userID],
			CampaignID:   result.CampaignID,
		})
		if err != nil || !sendRes.Success {
			if err != nil {
				s.logger.ErrorContext(ctx, "bulk send failed for user",
					logger.UserID(userID), logger.Error(err))
			}
			result.Skipped++
			continue
		}
		result.Queued++
	}

	return result, nil
}

// History returns the user's non-deleted notifications, newest first.
func (s *Service) History(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return s.storage.List(ctx, userID, opts)
}

// GetByID returns a notification regardless of its soft-delete state.
func (s *Service) GetByID(ctx context.Context, id string) (*Notification, error) {
	return s.storage.GetByID(ctx, id)
}

// MarkAsRead stamps readAt. Calling it on an already-read notification is a
// no-op that keeps the original timestamp.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	n, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if n.ReadAt == nil {
		if err := s.storage.SetRead(ctx, id, &now); err != nil {
			return err
		}
	}

	s.emit(ctx, n.UserID, Event{Type: EventRead, NotificationID: id, At: now})
	s.emitUnreadCount(ctx, n.UserID)
	return nil
}

// MarkAsUnread clears readAt. Idempotent.
func (s *Service) MarkAsUnread(ctx context.Context, id string) error {
	n, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if n.ReadAt != nil {
		if err := s.storage.SetRead(ctx, id, nil); err != nil {
			return err
		}
	}

	s.emit(ctx, n.UserID, Event{Type: EventUnread, NotificationID: id, At: time.Now()})
	s.emitUnreadCount(ctx, n.UserID)
	return nil
}

// MarkAllAsRead stamps readAt on every unread, non-deleted notification the
// user owns and returns the affected count.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	now := time.Now()
	count, err := s.storage.MarkAllRead(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	s.emit(ctx, userID, Event{Type: EventReadAll, At: now})
	s.emit(ctx, userID, Event{Type: EventUnreadCount, UnreadCount: 0, At: now})
	return count, nil
}

// UnreadCount counts unread, non-deleted notifications for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.storage.CountUnread(ctx, userID)
}

// Delete soft-deletes a notification. The record stays addressable by id
// but disappears from history and unread counts.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.storage.SetDeleted(ctx, id, &now); err != nil {
		return err
	}

	s.emit(ctx, n.UserID, Event{Type: EventDeleted, NotificationID: id, At: now})
	s.emitUnreadCount(ctx, n.UserID)
	return nil
}

// Restore clears the soft-delete marker.
func (s *Service) Restore(ctx context.Context, id string) error {
	n, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.SetDeleted(ctx, id, nil); err != nil {
		return err
	}

	s.emitUnreadCount(ctx, n.UserID)
	return nil
}

func (s *Service) validateRequest(ch provider.Channel, category *Category, priority *Priority, templateID string) error {
	if !ch.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
	}
	if *category == "" {
		*category = CategoryTransactional
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *category)
	}
	if *priority == "" {
		*priority = PriorityNormal
	}
	if !priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *priority)
	}
	if templateID != "" && s.renderer != nil && !s.renderer.IsValidTemplateID(templateID) {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, templateID)
	}
	return nil
}

// allowedByPreferences checks both opt-out gates. A failed preference
// lookup falls back to allow: the storage default is allow, and suppressing
// deliveries because the preference store hiccuped inverts that.
func (s *Service) allowedByPreferences(ctx context.Context, userID string, ch provider.Channel, category Category) bool {
	if s.prefs == nil {
		return true
	}

	channelOK, err := s.prefs.IsChannelEnabled(ctx, userID, string(ch))
	if err != nil {
		s.logger.WarnContext(ctx, "channel preference lookup failed",
			logger.UserID(userID), logger.Channel(string(ch)), logger.Error(err))
		channelOK = true
	}
	categoryOK, err := s.prefs.IsCategoryEnabled(ctx, userID, string(category))
	if err != nil {
		s.logger.WarnContext(ctx, "category preference lookup failed",
			logger.UserID(userID), logger.Error(err))
		categoryOK = true
	}

	return channelOK && categoryOK
}

// buildPayload constructs the channel payload, preferring template renders
// over raw fields. Email keeps the full subject/text/html triple; the other
// channels use the rendered text only.
func (s *Service) buildPayload(ctx context.Context, req SendRequest) (provider.Payload, error) {
	subject, text, html := req.Subject, req.Body, req.HTMLBody

	if req.TemplateID != "" && s.renderer != nil {
		rendered, err := s.renderer.Render(ctx, req.TemplateID, req.TemplateData)
		if err != nil {
			return nil, fmt.Errorf("render template %q: %w", req.TemplateID, err)
		}
		subject, text, html = rendered.Subject, rendered.Text, rendered.HTML
	}

	switch req.Channel {
	case provider.ChannelEmail:
		return provider.EmailPayload{
			To:       req.Recipient.Email,
			Subject:  subject,
			TextBody: text,
			HTMLBody: html,
			Tag:      string(req.Category),
		}, nil
	case provider.ChannelSMS:
		return provider.SMSPayload{To: req.Recipient.Phone, Body: text}, nil
	case provider.ChannelWhatsApp:
		return provider.WhatsAppPayload{To: req.Recipient.Phone, Body: text}, nil
	case provider.ChannelTelegram:
		return provider.TelegramPayload{ChatID: req.Recipient.TelegramChatID, Text: text}, nil
	case provider.ChannelPush:
		return provider.PushPayload{
			DeviceToken: req.Recipient.DeviceToken,
			Title:       subject,
			Body:        text,
		}, nil
	case provider.ChannelNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, req.Channel)
}

// renderedContent lifts the built payload's content back onto the record so
// the audit trail shows what was actually sent, not just the template inputs.
func renderedContent(p provider.Payload, n *Notification) (subject, body, html string) {
	switch payload := p.(type) {
	case provider.EmailPayload:
		return payload.Subject, payload.TextBody, payload.HTMLBody
	case provider.SMSPayload:
		return n.Subject, payload.Body, n.HTMLBody
	case provider.WhatsAppPayload:
		return n.Subject, payload.Body, n.HTMLBody
	case provider.TelegramPayload:
		return n.Subject, payload.Text, n.HTMLBody
	case provider.PushPayload:
		return payload.Title, payload.Body, n.HTMLBody
	}
	return n.Subject, n.Body, n.HTMLBody
}

func (s *Service) enqueue(ctx context.Context, n *Notification, payload provider.Payload) (SendResult, error) {
	raw, err := provider.EncodePayload(payload)
	if err != nil {
		return SendResult{}, err
	}

	jobID, err := uuid.Parse(n.ID)
	if err != nil {
		// Notification ids are uuids by construction; anything else is a
		// caller-injected id, so mint a queue id and keep going.
		jobID = uuid.New()
	}

	_, err = s.queue.Enqueue(ctx, &queue.Job{
		ID:       jobID,
		Channel:  string(n.Channel),
		Payload:  raw,
		Priority: n.Priority.QueueOrder(),
		Category: string(n.Category),
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("enqueue notification %s: %w", n.ID, err)
	}

	return SendResult{Success: true, NotificationID: n.ID, Provider: "queue"}, nil
}

// applyDelivery writes a provider result onto the record. Write failures
// are logged, not returned: the delivery already happened and must not be
// repeated to fix bookkeeping.
func (s *Service) applyDelivery(ctx context.Context, id string, result provider.Result, providerName string) {
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

	if err := s.storage.UpdateDelivery(ctx, id, update); err != nil {
		s.logger.ErrorContext(ctx, "failed to record delivery outcome",
			slog.String("notification_id", id),
			logger.Error(err))
	}
}

func (s *Service) providerName(ch provider.Channel) string {
	if p := s.registry.ForChannel(ch); p != nil {
		return p.Name()
	}
	return string(ch)
}

// emit broadcasts an event best-effort. Broadcast failure only logs; it
// never aborts the operation that produced the event.
func (s *Service) emit(ctx context.Context, userID string, event Event) {
	if s.broadcaster == nil || userID == "" {
		return
	}
	if err := s.broadcaster.BroadcastToUser(ctx, userID, event); err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast notification event",
			slog.String("event_type", string(event.Type)),
			logger.UserID(userID),
			logger.Error(err))
	}
}

func (s *Service) emitUnreadCount(ctx context.Context, userID string) {
	if s.broadcaster == nil || userID == "" {
		return
	}
	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to refresh unread count",
			logger.UserID(userID), logger.Error(err))
		return
	}
	s.emit(ctx, userID, Event{Type: EventUnreadCount, UnreadCount: count, At: time.Now()})
}
