package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robertarktes/court-reservations/internal/domain"
)

// fakeStore keeps reservations in memory. Transactions are serialized and roll back on error.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	courts       map[int64]domain.Court
	reservations map[int64]domain.Reservation
	outbox       []domain.OutboxEvent
	nextID       int64
}

func newFakeStore(courts ...domain.Court) *fakeStore {
	s := &fakeStore{courts: map[int64]domain.Court{}, reservations: map[int64]domain.Reservation{}}
	for _, c := range courts {
		s.courts[c.ID] = c
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(q domain.ReservationQueries) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := make(map[int64]domain.Reservation, len(s.reservations))
	for k, v := range s.reservations {
		saved[k] = v
	}
	savedOutbox := len(s.outbox)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.reservations = saved
		s.outbox = s.outbox[:savedOutbox]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) LockCourt(ctx context.Context, courtID int64) (domain.Court, error) {
	return s.Court(ctx, courtID)
}

func (s *fakeStore) Court(_ context.Context, id int64) (domain.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courts[id]
	if !ok {
		return domain.Court{}, domain.NotFoundf("court %d not found", id)
	}
	return c, nil
}

func (s *fakeStore) Courts(_ context.Context, clubID, sportID *int64) ([]domain.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Court
	for _, c := range s.courts {
		if clubID != nil && c.ClubID != *clubID {
			continue
		}
		if sportID != nil && c.SportID != *sportID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) Sports(context.Context) ([]domain.Sport, error) {
	return []domain.Sport{{ID: 1, Name: "Tênis"}}, nil
}

func (s *fakeStore) HasConflict(ctx context.Context, courtID int64, start, end time.Time) (bool, error) {
	return s.HasConflictExcluding(ctx, courtID, start, end, 0)
}

func (s *fakeStore) HasConflictExcluding(_ context.Context, courtID int64, start, end time.Time, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv := domain.Interval{Start: start, End: end}
	for id, r := range s.reservations {
		if id != excludeID && r.ConflictsWith(courtID, iv) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) InsertReservation(_ context.Context, r domain.Reservation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	r.CourtName = s.courts[r.CourtID].Name
	s.reservations[r.ID] = r
	return r.ID, nil
}

func (s *fakeStore) FindReservation(_ context.Context, id int64) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.NotFoundf("reservation %d not found", id)
	}
	return r, nil
}

func (s *fakeStore) LockReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.FindReservation(ctx, id)
}

func (s *fakeStore) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Reservation{}
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out
}

func (s *fakeStore) ReservationsByUser(_ context.Context, userID int64) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool { return r.UserID == userID }), nil
}

func (s *fakeStore) ListReservations(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool {
		return (f.UserID == nil || r.UserID == *f.UserID) &&
			(f.DateFrom == nil || !r.Start.Before(*f.DateFrom)) &&
			(f.DateTo == nil || !r.End.After(*f.DateTo))
	}), nil
}

func (s *fakeStore) ActiveReservationsBetween(_ context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool {
		return r.Status.IsActive() && domain.Overlaps(r.Start, r.End, from, to)
	}), nil
}

func (s *fakeStore) SaveReservation(_ context.Context, r domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; !ok {
		return domain.NotFoundf("reservation %d not found", r.ID)
	}
	s.reservations[r.ID] = r
	return nil
}

func (s *fakeStore) CancelReservation(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return false, domain.NotFoundf("reservation %d not found", id)
	}
	if r.Status == domain.StatusCancelled {
		return false, nil
	}
	r.Status = domain.StatusCancelled
	s.reservations[id] = r
	return true, nil
}

func (s *fakeStore) DeleteReservation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return domain.NotFoundf("reservation %d not found", id)
	}
	delete(s.reservations, id)
	return nil
}

func (s *fakeStore) InsertOutbox(_ context.Context, e domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, e)
	return nil
}

func (s *fakeStore) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []string
	for _, e := range s.outbox {
		types = append(types, e.EventType)
	}
	return types
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}
