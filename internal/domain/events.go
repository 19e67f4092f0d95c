package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventReservationCreated   = "reservation.created"
	EventReservationUpdated   = "reservation.updated"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationDeleted   = "reservation.deleted"
)

// OutboxEvent is written in the same transaction as the change it describes.
type OutboxEvent struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	DedupeKey     string
}

// ReservationEvent is the message body published for reservation changes.
type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id,omitempty"`
	CourtID       int64     `json:"court_id,omitempty"`
	Start         time.Time `json:"start_datetime,omitempty"`
	End           time.Time `json:"end_datetime,omitempty"`
	Status        Status    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r Reservation, now time.Time) (OutboxEvent, error) {
	payload, err := json.Marshal(ReservationEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		CourtID:       r.CourtID,
		Start:         r.Start,
		End:           r.End,
		Status:        r.Status,
		OccurredAt:    now,
	})
	if err != nil {
		return OutboxEvent{}, err
	}
	id := uuid.New()
	return OutboxEvent{
		ID:            id,
		AggregateType: "reservation",
		AggregateID:   strconv.FormatInt(r.ID, 10),
		EventType:     eventType,
		Payload:       payload,
		DedupeKey:     id.String(),
	}, nil
}
