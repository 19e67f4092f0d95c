package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/domain"
	"golang.org/x/sync/errgroup"
)

type ReservationReader interface {
	ActiveReservationsBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
}

type AvailabilityService struct {
	catalog      Catalog
	reservations ReservationReader
	loc          *time.Location
	now          func() time.Time
}

func NewAvailabilityService(catalog Catalog, reservations ReservationReader, loc *time.Location) *AvailabilityService {
	return &AvailabilityService{catalog: catalog, reservations: reservations, loc: loc, now: time.Now}
}

// GetAvailability lists the free slots of every matching court on day. A nil day means today.
func (s *AvailabilityService) GetAvailability(ctx context.Context, day *time.Time, clubID, sportID *int64) ([]domain.CourtAvailability, error) {
	date := s.now()
	if day != nil {
		date = *day
	}
	from := domain.StartOfDay(date, s.loc)
	to := from.AddDate(0, 0, 1)

	var courts []domain.Court
	var reservations []domain.Reservation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courts, err = s.catalog.Courts(gctx, clubID, sportID)
		return errors.Wrap(err, "load courts")
	})
	g.Go(func() error {
		var err error
		reservations, err = s.reservations.ActiveReservationsBetween(gctx, from, to)
		return errors.Wrap(err, "load reservations")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.Availability(courts, from, reservations), nil
}
