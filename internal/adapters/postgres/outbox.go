package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/court-reservations/internal/domain"
)

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED
	DedupeKey     string
}

func (q *Queries) InsertOutbox(ctx context.Context, e domain.OutboxEvent) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, e.ID, e.AggregateType, e.AggregateID, e.EventType, e.Payload, e.DedupeKey)
	return err
}

func (q *Queries) unpublishedOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
		FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		err := rows.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status, &rec.DedupeKey)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (q *Queries) markPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, publishedAt)
	return err
}

// DispatchOutbox claims up to limit unpublished records, hands each to send and marks the
// ones that were sent. Records stay claimed only for the duration of the transaction, so
// several publishers can run side by side. A send failure stops the batch; earlier records
// in it are still marked.
func (r *Repository) DispatchOutbox(ctx context.Context, limit int, send func(ctx context.Context, rec OutboxRecord) error) (int, error) {
	sent := 0
	var sendErr error
	err := r.withTx(ctx, func(q *Queries) error {
		records, err := q.unpublishedOutbox(ctx, limit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := send(ctx, rec); err != nil {
				sendErr = errors.Wrapf(err, "publish outbox record %s", rec.ID)
				return nil
			}
			if err := q.markPublished(ctx, rec.ID, time.Now()); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, sendErr
}

// OldestUnpublished returns the creation time of the oldest pending record, or nil when the outbox is drained.
func (r *Repository) OldestUnpublished(ctx context.Context) (*time.Time, error) {
	var oldest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT min(created_at) FROM outbox WHERE status = 'NEW'`).Scan(&oldest)
	return oldest, err
}
