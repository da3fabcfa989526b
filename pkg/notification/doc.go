// Package notification implements the notification dispatch engine: it
// turns a send request into a durable, retried, at-least-once delivery
// attempt across heterogeneous channels while honoring per-user opt-outs
// and keeping an auditable in-app record of every accepted request.
//
// The Service orchestrates the flow: preference gates, payload construction
// (template render or raw fields), record persistence with status pending,
// then a dispatch decision. Non-urgent external deliveries go through the
// job queue; urgent and in-app-only sends resolve synchronously. The
// Dispatcher is the queue-side half: it replays the job against the
// provider registry and reconciles the outcome onto the record.
//
// Delivery status is a small state machine: pending resolves to sent or
// failed, a failed record may be overwritten by a later retry, and sent is
// final. Read/unread and soft-delete state are independent of delivery
// status, so a failed external delivery is still a manageable in-app
// notification.
//
// Typical wiring:
//
//	svc, err := notification.NewService(store, registry,
//		notification.WithPreferences(prefs),
//		notification.WithRenderer(renderer),
//		notification.WithQueue(q),
//		notification.WithBroadcaster(hub),
//	)
//	if err != nil {
//		return err
//	}
//	res, err := svc.Send(ctx, notification.SendRequest{
//		UserID:     "u1",
//		Channel:    provider.ChannelEmail,
//		Category:   notification.CategoryTransactional,
//		TemplateID: "welcome",
//		Recipient:  notification.Recipient{Email: "user@example.com"},
//	})
//
// Live updates are optional: when a Broadcaster is configured the service
// emits created/read/unread/deleted and unread-count events to the owning
// user, best-effort.
package notification
