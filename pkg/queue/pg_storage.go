package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saasforge/notifykit/pkg/pg"
)

// PGStorage is a PostgreSQL Storage implementation backed by the
// notification_jobs table (see migrations/). Claims use FOR UPDATE SKIP
// LOCKED so concurrent workers never double-claim a job, and runnable
// selection treats expired leases as pending so crashed workers cannot
// strand work.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed job store.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const jobColumns = `id, channel, payload, priority, category, status,
	retry_count, max_retries, retry_delay_ms, backoff, run_at,
	locked_until, locked_by, processed_at, last_error, created_at`

func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	var retryDelayMs int64
	err := row.Scan(
		&job.ID, &job.Channel, &job.Payload, &job.Priority, &job.Category,
		&job.Status, &job.RetryCount, &job.MaxRetries, &retryDelayMs,
		&job.Backoff, &job.RunAt, &job.LockedUntil, &job.LockedBy,
		&job.ProcessedAt, &job.LastError, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.RetryDelay = time.Duration(retryDelayMs) * time.Millisecond
	return &job, nil
}

func (s *PGStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrJobNil
	}

	const query = `
		INSERT INTO notification_jobs
			(id, channel, payload, priority, category, status,
			 retry_count, max_retries, retry_delay_ms, backoff, run_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		job.ID, job.Channel, job.Payload, job.Priority, job.Category,
		job.Status, job.RetryCount, job.MaxRetries,
		job.RetryDelay.Milliseconds(), job.Backoff, job.RunAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *PGStorage) ClaimJobs(ctx context.Context, workerID uuid.UUID, limit int, lockDuration time.Duration) ([]*Job, error) {
	query := fmt.Sprintf(`
		WITH runnable AS (
			SELECT id FROM notification_jobs
			WHERE (status = 'pending' OR (status = 'active' AND locked_until < now()))
			  AND run_at <= now()
			ORDER BY priority, run_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_jobs j
		SET status = 'active', locked_until = now() + $2, locked_by = $3
		FROM runnable
		WHERE j.id = runnable.id
		RETURNING %s`, qualifyColumns("j", jobColumns))

	rows, err := s.pool.Query(ctx, query, limit, lockDuration, workerID)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobToClaim
	}
	return jobs, nil
}

func (s *PGStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	const query = `
		UPDATE notification_jobs
		SET status = 'completed', processed_at = now(),
		    locked_until = NULL, locked_by = NULL
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PGStorage) RescheduleJob(ctx context.Context, jobID uuid.UUID, errorMsg string, runAt time.Time) error {
	const query = `
		UPDATE notification_jobs
		SET status = 'pending', retry_count = retry_count + 1,
		    last_error = $2, run_at = $3,
		    locked_until = NULL, locked_by = NULL
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, jobID, errorMsg, runAt)
	if err != nil {
		return fmt.Errorf("reschedule job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PGStorage) FailJob(ctx context.Context, jobID uuid.UUID, errorMsg string) error {
	const query = `
		UPDATE notification_jobs
		SET status = 'failed', last_error = $2, processed_at = now(),
		    locked_until = NULL, locked_by = NULL
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, jobID, errorMsg)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PGStorage) RetryFailed(ctx context.Context, jobID uuid.UUID) error {
	const query = `
		UPDATE notification_jobs
		SET status = 'pending', retry_count = 0, run_at = now(), processed_at = NULL
		WHERE id = $1 AND status = 'failed'`

	tag, err := s.pool.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("retry job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a wrong-state row.
		if _, err := s.GetJob(ctx, jobID); err != nil {
			return err
		}
		return ErrJobNotFailed
	}
	return nil
}

func (s *PGStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_jobs WHERE id = $1`, jobColumns)

	job, err := scanJob(s.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return job, nil
}

func (s *PGStorage) Stats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT status, count(*) FROM notification_jobs GROUP BY status`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan queue stats: %w", err)
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusActive:
			stats.Active = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}
