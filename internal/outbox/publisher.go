package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/court-reservations/internal/adapters/postgres"
	"github.com/robertarktes/court-reservations/internal/observability"
)

type Source interface {
	DispatchOutbox(ctx context.Context, limit int, send func(ctx context.Context, rec postgres.OutboxRecord) error) (int, error)
	OldestUnpublished(ctx context.Context) (*time.Time, error)
}

type MessagePublisher interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// Publisher relays committed outbox records to the broker, routed by event type.
type Publisher struct {
	source    Source
	rabbitPub MessagePublisher
	logger    observability.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewPublisher(source Source, rabbitPub MessagePublisher, logger observability.Logger, interval time.Duration, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Publisher{
		source:    source,
		rabbitPub: rabbitPub,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Drain(ctx); err != nil && ctx.Err() == nil {
				p.logger.WithField("error", err.Error()).Error("outbox publish failed")
			}
			p.reportLag(ctx)
		}
	}
}

// Drain publishes batches until the outbox is empty or a publish fails.
func (p *Publisher) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := p.source.DispatchOutbox(ctx, p.batchSize, p.send)
		total += n
		if err != nil {
			return total, err
		}
		if n < p.batchSize {
			if total > 0 {
				p.logger.WithField("count", total).Debug("outbox records published")
			}
			return total, nil
		}
	}
}

func (p *Publisher) send(ctx context.Context, rec postgres.OutboxRecord) error {
	msg := amqp.Publishing{
		MessageId:    rec.DedupeKey,
		Type:         rec.EventType,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    rec.CreatedAt,
		Body:         rec.Payload,
	}
	if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
		observability.RabbitPublishFailures.Inc()
		return err
	}
	observability.OutboxPublished.Inc()
	return nil
}

func (p *Publisher) reportLag(ctx context.Context) {
	oldest, err := p.source.OldestUnpublished(ctx)
	if err != nil {
		p.logger.WithField("error", err.Error()).Warn("failed to read outbox lag")
		return
	}
	if oldest == nil {
		observability.OutboxLag.Set(0)
		return
	}
	observability.OutboxLag.Set(p.now().Sub(*oldest).Seconds())
}
