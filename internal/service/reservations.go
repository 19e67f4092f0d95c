package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

// ReservationService drives the reservation lifecycle. Every write goes through a
// store transaction and leaves an outbox event behind in the same transaction.
type ReservationService struct {
	store  domain.ReservationStore
	logger observability.Logger
	now    func() time.Time
}

func NewReservationService(store domain.ReservationStore, logger observability.Logger) *ReservationService {
	return &ReservationService{store: store, logger: logger, now: time.Now}
}

// Create books [start, end) on a court for a user. The court row stays locked from the
// conflict check until the insert commits, so concurrent bookings of one court serialize.
func (s *ReservationService) Create(ctx context.Context, userID, courtID int64, start, end time.Time) (int64, error) {
	if userID <= 0 {
		return 0, domain.Validationf("user_id is required")
	}
	if courtID <= 0 {
		return 0, domain.Validationf("court_id is required")
	}
	iv := domain.Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.store.WithTx(ctx, func(q domain.ReservationQueries) error {
		court, err := q.LockCourt(ctx, courtID)
		if err != nil {
			return err
		}
		conflict, err := q.HasConflict(ctx, courtID, start, end)
		if err != nil {
			return errors.Wrap(err, "check conflict")
		}
		if conflict {
			return domain.Conflictf("court %d is already booked for that interval", courtID)
		}

		r := domain.NewReservation(userID, court, iv)
		if id, err = q.InsertReservation(ctx, r); err != nil {
			return err
		}
		r.ID = id
		return s.emit(ctx, q, domain.EventReservationCreated, r)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			observability.ReservationConflicts.Inc()
		}
		return 0, err
	}

	s.logger.WithField("reservation_id", id).WithField("court_id", courtID).Info("reservation created")
	return id, nil
}

func (s *ReservationService) FindByID(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.store.FindReservation(ctx, id)
}

func (s *ReservationService) FindByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	if userID <= 0 {
		return nil, domain.Validationf("user_id is required")
	}
	return s.store.ReservationsByUser(ctx, userID)
}

func (s *ReservationService) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	return s.store.ListReservations(ctx, f)
}

// UpdateFull replaces user, court and interval, with optional status and total overrides.
func (s *ReservationService) UpdateFull(ctx context.Context, id int64, u domain.FullUpdate) (domain.Reservation, error) {
	if err := u.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	return s.update(ctx, id, true, u.Apply)
}

// UpdatePartial changes only the fields present in the patch.
func (s *ReservationService) UpdatePartial(ctx context.Context, id int64, p domain.Patch) (domain.Reservation, error) {
	if p.IsEmpty() {
		return domain.Reservation{}, domain.Validationf("no fields to update")
	}
	return s.update(ctx, id, p.TouchesSchedule(), p.Apply)
}

// update re-validates the merged reservation and, when it is active and its schedule may
// have moved, re-runs the conflict check against every other reservation of the target court.
// Cancelled reservations can be updated too; reactivating one goes through the same check.
func (s *ReservationService) update(ctx context.Context, id int64, scheduleChanged bool, apply func(domain.Reservation) domain.Reservation) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.store.WithTx(ctx, func(q domain.ReservationQueries) error {
		current, err := q.LockReservation(ctx, id)
		if err != nil {
			return err
		}

		next := apply(current)
		if err := next.Interval().Validate(); err != nil {
			return err
		}
		checkConflict := scheduleChanged && next.Status.IsActive()
		if checkConflict || next.CourtID != current.CourtID {
			court, err := q.LockCourt(ctx, next.CourtID)
			if err != nil {
				return err
			}
			next.CourtName = court.Name
		}
		if checkConflict {
			conflict, err := q.HasConflictExcluding(ctx, next.CourtID, next.Start, next.End, id)
			if err != nil {
				return errors.Wrap(err, "check conflict")
			}
			if conflict {
				return domain.Conflictf("court %d is already booked for that interval", next.CourtID)
			}
		}

		if err := q.SaveReservation(ctx, next); err != nil {
			return err
		}
		updated = next
		return s.emit(ctx, q, domain.EventReservationUpdated, next)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			observability.ReservationConflicts.Inc()
		}
		return domain.Reservation{}, err
	}

	s.logger.WithField("reservation_id", id).Info("reservation updated")
	return updated, nil
}

// Cancel reports whether the reservation actually changed; cancelling twice is a no-op.
func (s *ReservationService) Cancel(ctx context.Context, id int64) (bool, error) {
	var changed bool
	err := s.store.WithTx(ctx, func(q domain.ReservationQueries) error {
		var err error
		if changed, err = q.CancelReservation(ctx, id); err != nil || !changed {
			return err
		}
		cancelled, err := q.FindReservation(ctx, id)
		if err != nil {
			return err
		}
		return s.emit(ctx, q, domain.EventReservationCancelled, cancelled)
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.WithField("reservation_id", id).Info("reservation cancelled")
	}
	return changed, nil
}

func (s *ReservationService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q domain.ReservationQueries) error {
		if err := q.DeleteReservation(ctx, id); err != nil {
			return err
		}
		return s.emit(ctx, q, domain.EventReservationDeleted, domain.Reservation{ID: id})
	})
	if err != nil {
		return err
	}
	s.logger.WithField("reservation_id", id).Info("reservation deleted")
	return nil
}

func (s *ReservationService) emit(ctx context.Context, q domain.ReservationQueries, eventType string, r domain.Reservation) error {
	evt, err := domain.NewReservationEvent(eventType, r, s.now())
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return errors.Wrap(q.InsertOutbox(ctx, evt), "insert outbox")
}
