package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

type failingReader struct{}

func (failingReader) ActiveReservationsBetween(context.Context, time.Time, time.Time) ([]domain.Reservation, error) {
	return nil, errors.New("db down")
}

func TestAvailabilityService_ExcludesBookedSlot(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(testCourts()...)
	reservations := NewReservationService(store, observability.NewNopLogger())
	if _, err := reservations.Create(ctx, 1, 1, at(10, 0), at(11, 0)); err != nil {
		t.Fatal(err)
	}

	svc := NewAvailabilityService(store, store, time.UTC)
	day := at(0, 0)
	sport := int64(1)
	got, err := svc.GetAvailability(ctx, &day, nil, &sport)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].CourtID != 1 {
		t.Fatalf("expected only court 1, got %+v", got)
	}
	if len(got[0].Slots) != 13 {
		t.Fatalf("expected 13 free slots, got %d", len(got[0].Slots))
	}
	for _, s := range got[0].Slots {
		if s.Start.Equal(at(10, 0)) {
			t.Errorf("booked slot 10:00 still offered")
		}
	}
}

func TestAvailabilityService_DefaultsToToday(t *testing.T) {
	store := newFakeStore(testCourts()...)
	svc := NewAvailabilityService(store, store, time.UTC)
	svc.now = func() time.Time { return at(15, 42) }

	got, err := svc.GetAvailability(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both courts, got %d", len(got))
	}
	if !got[0].Slots[0].Start.Equal(at(8, 0)) {
		t.Errorf("expected first slot at 08:00 today, got %v", got[0].Slots[0].Start)
	}
	if got[1].CourtID != 2 || len(got[1].Slots) != 4 {
		t.Errorf("unexpected court 2 availability %+v", got[1])
	}
}

func TestAvailabilityService_PropagatesLoadErrors(t *testing.T) {
	store := newFakeStore(testCourts()...)
	svc := NewAvailabilityService(store, failingReader{}, time.UTC)

	if _, err := svc.GetAvailability(context.Background(), nil, nil, nil); err == nil {
		t.Errorf("expected error")
	}
}
