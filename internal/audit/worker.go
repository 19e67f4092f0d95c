package audit

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

// BindingKey matches every reservation event on the events exchange.
const BindingKey = "reservation.#"

type Recorder interface {
	LogReservationEvent(ctx context.Context, messageID, action string, ev domain.ReservationEvent) (bool, error)
}

// Worker stores reservation events delivered by the broker in the audit log.
type Worker struct {
	recorder Recorder
	logger   observability.Logger
}

func NewWorker(recorder Recorder, logger observability.Logger) *Worker {
	return &Worker{recorder: recorder, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	action := d.Type
	if action == "" {
		action = d.RoutingKey
	}
	log := w.logger.WithField("message_id", d.MessageId).WithField("event_type", action)

	var ev domain.ReservationEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.ReservationID == 0 {
		log.Warn("dropping malformed reservation event")
		d.Nack(false, false)
		return
	}

	stored, err := w.recorder.LogReservationEvent(ctx, d.MessageId, action, ev)
	if err != nil {
		log.WithField("error", err.Error()).Error("failed to store audit event")
		d.Nack(false, true)
		return
	}
	if stored {
		observability.AuditEventsStored.WithLabelValues(action).Inc()
	}
	if err := d.Ack(false); err != nil {
		log.WithField("error", err.Error()).Error("failed to ack delivery")
	}
}
