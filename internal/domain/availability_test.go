package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/shopspring/decimal"
)

func testCourt() domain.Court {
	return domain.Court{
		ID:           1,
		Name:         "Quadra Central",
		PricePerSlot: decimal.NewFromInt(70),
		OpensAt:      8 * time.Hour,
		ClosesAt:     22 * time.Hour,
		SlotMinutes:  60,
	}
}

func TestSlotGrid(t *testing.T) {
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	grid := domain.SlotGrid(testCourt(), day)

	if len(grid) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(grid))
	}
	if !grid[0].Start.Equal(at(8, 0)) || !grid[13].End.Equal(at(22, 0)) {
		t.Errorf("unexpected grid bounds %v - %v", grid[0].Start, grid[13].End)
	}
	for i := 1; i < len(grid); i++ {
		if !grid[i].Start.Equal(grid[i-1].End) {
			t.Errorf("slot %d does not follow slot %d", i, i-1)
		}
	}
}

func TestSlotGrid_FollowsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	for _, day := range []time.Time{
		time.Date(2025, 3, 9, 0, 0, 0, 0, loc),
		time.Date(2025, 11, 2, 0, 0, 0, 0, loc),
	} {
		grid := domain.SlotGrid(testCourt(), day)
		if len(grid) != 14 {
			t.Fatalf("%s: expected 14 slots, got %d", day.Format("2006-01-02"), len(grid))
		}
		first, last := grid[0].Start.In(loc), grid[13].End.In(loc)
		if first.Hour() != 8 || first.Minute() != 0 || last.Hour() != 22 {
			t.Errorf("%s: expected 08:00-22:00, got %s-%s", day.Format("2006-01-02"), first.Format("15:04"), last.Format("15:04"))
		}
	}
}

func TestSlotGrid_DropsPartialTrailingSlot(t *testing.T) {
	c := testCourt()
	c.SlotMinutes = 90
	c.ClosesAt = 12 * time.Hour
	grid := domain.SlotGrid(c, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))

	if len(grid) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(grid))
	}
	if !grid[1].End.Equal(at(11, 0)) {
		t.Errorf("expected last slot to end at 11:00, got %v", grid[1].End)
	}
}

func TestAvailability_ExcludesReservedSlot(t *testing.T) {
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	court := testCourt()
	reservations := []domain.Reservation{
		{CourtID: 1, Start: at(10, 0), End: at(11, 0), Status: domain.StatusPending},
		{CourtID: 1, Start: at(14, 0), End: at(15, 0), Status: domain.StatusCancelled},
		{CourtID: 2, Start: at(12, 0), End: at(13, 0), Status: domain.StatusConfirmed},
	}

	got := domain.Availability([]domain.Court{court}, day, reservations)
	if len(got) != 1 {
		t.Fatalf("expected 1 court, got %d", len(got))
	}
	full := domain.SlotGrid(court, day)
	slots := got[0].Slots
	if len(slots) != len(full)-1 {
		t.Fatalf("expected %d slots, got %d", len(full)-1, len(slots))
	}
	j := 0
	for _, s := range full {
		if s.Start.Equal(at(10, 0)) {
			continue
		}
		if !slots[j].Start.Equal(s.Start) || !slots[j].Price.Equal(s.Price) {
			t.Errorf("slot %d changed: expected %v, got %v", j, s.Start, slots[j].Start)
		}
		j++
	}
}

func TestAvailability_FullyBookedCourtStillListed(t *testing.T) {
	day := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	court := testCourt()
	booked := []domain.Reservation{{CourtID: 1, Start: at(7, 0), End: at(23, 0), Status: domain.StatusConfirmed}}

	got := domain.Availability([]domain.Court{court}, day, booked)
	if len(got) != 1 || len(got[0].Slots) != 0 {
		t.Fatalf("expected court with empty slot list, got %+v", got)
	}
	if got[0].CourtName != "Quadra Central" {
		t.Errorf("unexpected court name %q", got[0].CourtName)
	}
}
