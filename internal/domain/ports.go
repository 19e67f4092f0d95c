package domain

import (
	"context"
	"time"
)

// ReservationQueries is the set of reservation store operations that can run
// either directly against the pool or inside a transaction.
type ReservationQueries interface {
	// LockCourt loads the court and holds a row lock on it until the transaction ends.
	LockCourt(ctx context.Context, courtID int64) (Court, error)
	HasConflict(ctx context.Context, courtID int64, start, end time.Time) (bool, error)
	HasConflictExcluding(ctx context.Context, courtID int64, start, end time.Time, excludeID int64) (bool, error)

	InsertReservation(ctx context.Context, r Reservation) (int64, error)
	FindReservation(ctx context.Context, id int64) (Reservation, error)
	LockReservation(ctx context.Context, id int64) (Reservation, error)
	ReservationsByUser(ctx context.Context, userID int64) ([]Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	ActiveReservationsBetween(ctx context.Context, from, to time.Time) ([]Reservation, error)
	SaveReservation(ctx context.Context, r Reservation) error
	CancelReservation(ctx context.Context, id int64) (bool, error)
	DeleteReservation(ctx context.Context, id int64) error

	InsertOutbox(ctx context.Context, e OutboxEvent) error
}

// ReservationStore adds transactions on top of ReservationQueries.
type ReservationStore interface {
	ReservationQueries
	WithTx(ctx context.Context, fn func(q ReservationQueries) error) error
}
