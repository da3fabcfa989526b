package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saasforge/notifykit/pkg/pg"
)

// PGStorage is a PostgreSQL Storage implementation backed by the
// notifications table (see migrations/). The delivery status machine is
// enforced in the UPDATE predicate so the check and the write are one
// statement.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed notification store.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const notificationColumns = `id, user_id, channel, category, priority,
	template_id, template_data, subject, body, html_body, recipient,
	status, status_message, provider, provider_message_id,
	sent_at, failed_at, read_at, deleted_at, campaign_id,
	created_at, updated_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Channel, &n.Category, &n.Priority,
		&n.TemplateID, &n.TemplateData, &n.Subject, &n.Body, &n.HTMLBody,
		&n.Recipient, &n.Status, &n.StatusMessage, &n.Provider,
		&n.ProviderMessageID, &n.SentAt, &n.FailedAt, &n.ReadAt,
		&n.DeletedAt, &n.CampaignID, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *PGStorage) Create(ctx context.Context, n *Notification) error {
	const query = `
		INSERT INTO notifications
			(id, user_id, channel, category, priority,
			 template_id, template_data, subject, body, html_body, recipient,
			 status, status_message, provider, provider_message_id,
			 sent_at, failed_at, read_at, deleted_at, campaign_id,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := s.pool.Exec(ctx, query,
		n.ID, n.UserID, n.Channel, n.Category, n.Priority,
		n.TemplateID, n.TemplateData, n.Subject, n.Body, n.HTMLBody, n.Recipient,
		n.Status, n.StatusMessage, n.Provider, n.ProviderMessageID,
		n.SentAt, n.FailedAt, n.ReadAt, n.DeletedAt, n.CampaignID,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *PGStorage) GetByID(ctx context.Context, id string) (*Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	n, err := scanNotification(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

func (s *PGStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE user_id = $1 AND deleted_at IS NULL`, notificationColumns)
	args := []any{userID}

	if opts.OnlyUnread {
		query += ` AND read_at IS NULL`
	}
	if len(opts.Categories) > 0 {
		args = append(args, opts.Categories)
		query += fmt.Sprintf(` AND category = ANY($%d)`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

func (s *PGStorage) UpdateDelivery(ctx context.Context, id string, update DeliveryUpdate) error {
	const query = `
		UPDATE notifications
		SET status = $2, status_message = $3, provider = $4,
		    provider_message_id = $5,
		    sent_at = CASE WHEN $2 = 'sent' THEN $6 ELSE sent_at END,
		    failed_at = CASE WHEN $2 = 'failed' THEN $6 ELSE failed_at END,
		    updated_at = $6
		WHERE id = $1 AND status IN ('pending', 'failed')`

	tag, err := s.pool.Exec(ctx, query, id,
		update.Status, update.StatusMessage, update.Provider,
		update.ProviderMessageID, update.At,
	)
	if err != nil {
		return fmt.Errorf("update delivery for notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusFinal
	}
	return nil
}

func (s *PGStorage) SetRead(ctx context.Context, id string, readAt *time.Time) error {
	const query = `
		UPDATE notifications SET read_at = $2, updated_at = now() WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, readAt)
	if err != nil {
		return fmt.Errorf("set read for notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStorage) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	const query = `
		UPDATE notifications
		SET read_at = $2, updated_at = $2
		WHERE user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`

	tag, err := s.pool.Exec(ctx, query, userID, readAt)
	if err != nil {
		return 0, fmt.Errorf("mark all read for user %s: %w", userID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PGStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT count(*) FROM notifications
		WHERE user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`

	var count int
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *PGStorage) SetDeleted(ctx context.Context, id string, deletedAt *time.Time) error {
	const query = `
		UPDATE notifications SET deleted_at = $2, updated_at = now() WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("set deleted for notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
