package notification_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasforge/notifykit/pkg/notification"
	"github.com/saasforge/notifykit/pkg/preferences"
	"github.com/saasforge/notifykit/pkg/provider"
	"github.com/saasforge/notifykit/pkg/queue"
	"github.com/saasforge/notifykit/pkg/template"
)

type fakeProvider struct {
	mu     sync.Mutex
	name   string
	result provider.Result
	sent   []provider.Payload
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ValidatePayload(p provider.Payload) error { return nil }

func (f *fakeProvider) Send(ctx context.Context, p provider.Payload) provider.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return f.result
}

func (f *fakeProvider) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []notification.Event
}

func (b *recordingBroadcaster) BroadcastToUser(ctx context.Context, userID string, event notification.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	event.UserID = userID
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBroadcaster) byType(et notification.EventType) []notification.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []notification.Event
	for _, e := range b.events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

func emailRequest(userID string) notification.SendRequest {
	return notification.SendRequest{
		UserID:    userID,
		Channel:   provider.ChannelEmail,
		Category:  notification.CategoryTransactional,
		Subject:   "Welcome",
		Body:      "Hello!",
		Recipient: notification.Recipient{Email: "user@example.com"},
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("queued when a queue is configured and priority is not urgent", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark", result: provider.Success("pm-1")}
		store := notification.NewMemoryStorage()
		jobStore := queue.NewMemoryStorage()
		t.Cleanup(func() { _ = jobStore.Close() })

		// The queue is never started, so enqueued jobs stay pending.
		q, err := queue.New(jobStore, queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error { return nil }))
		require.NoError(t, err)

		svc, err := notification.NewService(store, &provider.Registry{Email: email},
			notification.WithQueue(q))
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), emailRequest("u1"))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "queue", res.Provider)

		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusPending, record.Status)

		stats, err := q.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Pending)
		assert.Equal(t, 0, email.sendCount())
	})

	t.Run("urgent bypasses the queue and resolves synchronously", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark", result: provider.Success("pm-2")}
		store := notification.NewMemoryStorage()
		jobStore := queue.NewMemoryStorage()
		t.Cleanup(func() { _ = jobStore.Close() })
		q, err := queue.New(jobStore, queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error { return nil }))
		require.NoError(t, err)

		svc, err := notification.NewService(store, &provider.Registry{Email: email},
			notification.WithQueue(q))
		require.NoError(t, err)

		req := emailRequest("u1")
		req.Priority = notification.PriorityUrgent

		res, err := svc.Send(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "postmark", res.Provider)
		assert.Equal(t, "pm-2", res.MessageID)
		assert.Equal(t, 1, email.sendCount())

		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, record.Status)
		assert.NotNil(t, record.SentAt)

		stats, err := q.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Pending)
	})

	t.Run("synchronous failure lands on the record", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark",
			result: provider.Failure(provider.CodeSendFailed, "rejected", false)}
		store := notification.NewMemoryStorage()

		svc, err := notification.NewService(store, &provider.Registry{Email: email})
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), emailRequest("u1"))
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, provider.CodeSendFailed, res.Error.Code)

		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusFailed, record.Status)
		assert.NotNil(t, record.FailedAt)
	})

	t.Run("channel none succeeds without any provider", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStorage()
		svc, err := notification.NewService(store, &provider.Registry{})
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), notification.SendRequest{
			UserID:  "u1",
			Channel: provider.ChannelNone,
			Subject: "Heads up",
			Body:    "In-app only",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "none", res.Provider)

		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, record.Status)
	})

	t.Run("opted-out user still gets a record, nothing is sent", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark", result: provider.Success("x")}
		store := notification.NewMemoryStorage()
		prefStore := preferences.NewMemoryStorage()
		prefs, err := preferences.NewService(prefStore)
		require.NoError(t, err)
		_, err = prefs.Upsert(context.Background(), "u1", preferences.Patch{
			Channels: map[string]bool{"email": false},
		})
		require.NoError(t, err)

		jobStore := queue.NewMemoryStorage()
		t.Cleanup(func() { _ = jobStore.Close() })
		q, err := queue.New(jobStore, queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error { return nil }))
		require.NoError(t, err)

		svc, err := notification.NewService(store, &provider.Registry{Email: email},
			notification.WithPreferences(prefs),
			notification.WithQueue(q))
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), emailRequest("u1"))
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, provider.CodeOptedOut, res.Error.Code)
		assert.False(t, res.Error.Retryable)

		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, "u1", record.UserID)

		assert.Equal(t, 0, email.sendCount())
		stats, err := q.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Pending)
	})

	t.Run("template render shapes the payload per channel", func(t *testing.T) {
		t.Parallel()

		renderer := template.NewStaticRenderer()
		require.NoError(t, renderer.Register("welcome",
			"Welcome {{.Name}}", "Hello {{.Name}}!", "<p>Hello {{.Name}}!</p>"))

		email := &fakeProvider{name: "postmark", result: provider.Success("pm-3")}
		store := notification.NewMemoryStorage()
		svc, err := notification.NewService(store, &provider.Registry{Email: email},
			notification.WithRenderer(renderer))
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), notification.SendRequest{
			UserID:       "u1",
			Channel:      provider.ChannelEmail,
			TemplateID:   "welcome",
			TemplateData: map[string]any{"Name": "Ada"},
			Recipient:    notification.Recipient{Email: "ada@example.com"},
		})
		require.NoError(t, err)
		require.True(t, res.Success)

		require.Equal(t, 1, email.sendCount())
		payload, ok := email.sent[0].(provider.EmailPayload)
		require.True(t, ok)
		assert.Equal(t, "Welcome Ada", payload.Subject)
		assert.Equal(t, "Hello Ada!", payload.TextBody)
		assert.Equal(t, "<p>Hello Ada!</p>", payload.HTMLBody)

		// The rendered content is denormalized onto the record for audit.
		record, err := store.GetByID(context.Background(), res.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, "Welcome Ada", record.Subject)
	})

	t.Run("unknown template is rejected", func(t *testing.T) {
		t.Parallel()

		renderer := template.NewStaticRenderer()
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{},
			notification.WithRenderer(renderer))
		require.NoError(t, err)

		_, err = svc.Send(context.Background(), notification.SendRequest{
			Channel:    provider.ChannelEmail,
			TemplateID: "nope",
		})
		require.ErrorIs(t, err, notification.ErrUnknownTemplate)
	})

	t.Run("invalid request fields are rejected", func(t *testing.T) {
		t.Parallel()

		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{})
		require.NoError(t, err)
		ctx := context.Background()

		_, err = svc.Send(ctx, notification.SendRequest{Channel: "fax"})
		require.ErrorIs(t, err, notification.ErrInvalidChannel)

		_, err = svc.Send(ctx, notification.SendRequest{Channel: provider.ChannelEmail, Category: "spam"})
		require.ErrorIs(t, err, notification.ErrInvalidCategory)

		_, err = svc.Send(ctx, notification.SendRequest{Channel: provider.ChannelEmail, Priority: "asap"})
		require.ErrorIs(t, err, notification.ErrInvalidPriority)
	})

	t.Run("created event reaches the owning user", func(t *testing.T) {
		t.Parallel()

		b := &recordingBroadcaster{}
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{},
			notification.WithBroadcaster(b))
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), notification.SendRequest{
			UserID:  "u1",
			Channel: provider.ChannelNone,
			Body:    "hi",
		})
		require.NoError(t, err)

		created := b.byType(notification.EventCreated)
		require.Len(t, created, 1)
		assert.Equal(t, "u1", created[0].UserID)
		assert.Equal(t, res.NotificationID, created[0].NotificationID)
	})
}

func TestSendBulk(t *testing.T) {
	t.Parallel()

	t.Run("honors per-user opt-out", func(t *testing.T) {
		t.Parallel()

		prefs, err := preferences.NewService(preferences.NewMemoryStorage())
		require.NoError(t, err)
		_, err = prefs.Upsert(context.Background(), "u2", preferences.Patch{
			Categories: map[string]bool{"marketing": false},
		})
		require.NoError(t, err)

		email := &fakeProvider{name: "postmark", result: provider.Success("ok")}
		store := notification.NewMemoryStorage()
		svc, err := notification.NewService(store, &provider.Registry{Email: email},
			notification.WithPreferences(prefs))
		require.NoError(t, err)

		res, err := svc.SendBulk(context.Background(), notification.BulkRequest{
			UserIDs:  []string{"u1", "u2"},
			Channel:  provider.ChannelEmail,
			Category: notification.CategoryMarketing,
			Subject:  "Sale",
			Body:     "Everything must go",
			Recipients: map[string]notification.Recipient{
				"u1": {Email: "u1@example.com"},
				"u2": {Email: "u2@example.com"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Queued)
		assert.Equal(t, 1, res.Skipped)
		assert.NotEmpty(t, res.CampaignID)

		// Only the eligible user got a record; skipped users are not even
		// recorded by bulk sends.
		u1History, err := svc.History(context.Background(), "u1", notification.ListOptions{})
		require.NoError(t, err)
		require.Len(t, u1History, 1)
		assert.Equal(t, res.CampaignID, u1History[0].CampaignID)

		u2History, err := svc.History(context.Background(), "u2", notification.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, u2History)
	})

	t.Run("duplicate user ids are collapsed", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark", result: provider.Success("ok")}
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{Email: email})
		require.NoError(t, err)

		res, err := svc.SendBulk(context.Background(), notification.BulkRequest{
			UserIDs:    []string{"u1", "u1", "u1"},
			Channel:    provider.ChannelEmail,
			Body:       "once",
			Recipients: map[string]notification.Recipient{"u1": {Email: "u1@example.com"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Queued)
		assert.Equal(t, 0, res.Skipped)
		assert.Equal(t, 1, email.sendCount())
	})

	t.Run("empty target list", func(t *testing.T) {
		t.Parallel()

		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{})
		require.NoError(t, err)

		_, err = svc.SendBulk(context.Background(), notification.BulkRequest{Channel: provider.ChannelEmail})
		require.ErrorIs(t, err, notification.ErrNoTargets)
	})
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	newServiceWithRecord := func(t *testing.T) (*notification.Service, *recordingBroadcaster, string) {
		t.Helper()

		b := &recordingBroadcaster{}
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{},
			notification.WithBroadcaster(b))
		require.NoError(t, err)

		res, err := svc.Send(context.Background(), notification.SendRequest{
			UserID:  "u1",
			Channel: provider.ChannelNone,
			Body:    "hello",
		})
		require.NoError(t, err)
		return svc, b, res.NotificationID
	}

	t.Run("mark as read decrements unread count and is idempotent", func(t *testing.T) {
		t.Parallel()

		svc, _, id := newServiceWithRecord(t)
		ctx := context.Background()

		count, err := svc.UnreadCount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, svc.MarkAsRead(ctx, id))
		first, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, first.ReadAt)
		firstReadAt := *first.ReadAt

		count, err = svc.UnreadCount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		require.NoError(t, svc.MarkAsRead(ctx, id))
		second, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, second.ReadAt)
		assert.False(t, second.ReadAt.Before(firstReadAt))
	})

	t.Run("mark as unread restores the count", func(t *testing.T) {
		t.Parallel()

		svc, _, id := newServiceWithRecord(t)
		ctx := context.Background()

		require.NoError(t, svc.MarkAsRead(ctx, id))
		require.NoError(t, svc.MarkAsUnread(ctx, id))

		count, err := svc.UnreadCount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// Idempotent on an already-unread record.
		require.NoError(t, svc.MarkAsUnread(ctx, id))
	})

	t.Run("mark all as read", func(t *testing.T) {
		t.Parallel()

		b := &recordingBroadcaster{}
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{},
			notification.WithBroadcaster(b))
		require.NoError(t, err)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := svc.Send(ctx, notification.SendRequest{
				UserID: "u1", Channel: provider.ChannelNone, Body: "n"})
			require.NoError(t, err)
		}

		affected, err := svc.MarkAllAsRead(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, affected)

		count, err := svc.UnreadCount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		counts := b.byType(notification.EventUnreadCount)
		require.NotEmpty(t, counts)
		assert.Equal(t, 0, counts[len(counts)-1].UnreadCount)
	})

	t.Run("delete hides from history but not from GetByID", func(t *testing.T) {
		t.Parallel()

		svc, b, id := newServiceWithRecord(t)
		ctx := context.Background()

		require.NoError(t, svc.Delete(ctx, id))

		history, err := svc.History(ctx, "u1", notification.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, history)

		got, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted())

		require.Len(t, b.byType(notification.EventDeleted), 1)

		require.NoError(t, svc.Restore(ctx, id))
		history, err = svc.History(ctx, "u1", notification.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("lifecycle works on failed deliveries too", func(t *testing.T) {
		t.Parallel()

		email := &fakeProvider{name: "postmark",
			result: provider.Failure(provider.CodeSendFailed, "bounced", false)}
		svc, err := notification.NewService(notification.NewMemoryStorage(), &provider.Registry{Email: email})
		require.NoError(t, err)
		ctx := context.Background()

		res, err := svc.Send(ctx, emailRequest("u1"))
		require.NoError(t, err)
		require.False(t, res.Success)

		require.NoError(t, svc.MarkAsRead(ctx, res.NotificationID))
		require.NoError(t, svc.Delete(ctx, res.NotificationID))
		require.NoError(t, svc.Restore(ctx, res.NotificationID))
	})
}
