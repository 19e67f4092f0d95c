package domain

import "time"

// SlotGrid lays fixed-duration slots over the court's opening hours on day. Slot bounds are
// wall-clock times in day's location, so DST changes do not shift the grid. A trailing slot
// that would run past closing is dropped.
func SlotGrid(c Court, day time.Time) []Slot {
	step := c.SlotDuration()

	var slots []Slot
	for off := c.OpensAt; off+step <= c.ClosesAt; off += step {
		slots = append(slots, Slot{Start: wallClock(day, off), End: wallClock(day, off+step), Price: c.PricePerSlot})
	}
	return slots
}

// wallClock returns the time of day off after midnight on day's calendar date.
func wallClock(day time.Time, off time.Duration) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(off/time.Hour), int(off%time.Hour/time.Minute), int(off%time.Minute/time.Second), 0, day.Location())
}

// FreeSlots drops every slot that overlaps an active reservation of the court, keeping order.
func FreeSlots(courtID int64, grid []Slot, reservations []Reservation) []Slot {
	free := make([]Slot, 0, len(grid))
	for _, slot := range grid {
		iv := Interval{Start: slot.Start, End: slot.End}
		taken := false
		for _, r := range reservations {
			if r.ConflictsWith(courtID, iv) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}

// Availability computes bookable slots for each court; courts keep their input order.
func Availability(courts []Court, day time.Time, reservations []Reservation) []CourtAvailability {
	byCourt := make(map[int64][]Reservation, len(courts))
	for _, r := range reservations {
		byCourt[r.CourtID] = append(byCourt[r.CourtID], r)
	}

	out := make([]CourtAvailability, 0, len(courts))
	for _, c := range courts {
		out = append(out, CourtAvailability{
			CourtID:   c.ID,
			CourtName: c.Name,
			Slots:     FreeSlots(c.ID, SlotGrid(c, day), byCourt[c.ID]),
		})
	}
	return out
}
