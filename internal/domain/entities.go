package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sport struct {
	ID   int64
	Name string
}

type Club struct {
	ID   int64
	Name string
}

// Court is catalog data. OpensAt and ClosesAt are offsets from local midnight.
type Court struct {
	ID           int64
	Name         string
	ClubID       int64
	SportID      int64
	PricePerSlot decimal.Decimal
	OpensAt      time.Duration
	ClosesAt     time.Duration
	SlotMinutes  int
}

func (c Court) SlotDuration() time.Duration {
	if c.SlotMinutes <= 0 {
		return DefaultSlotMinutes * time.Minute
	}
	return time.Duration(c.SlotMinutes) * time.Minute
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Reservation struct {
	ID        int64
	UserID    int64
	CourtID   int64
	CourtName string
	Start     time.Time
	End       time.Time
	Status    Status
	Total     decimal.NullDecimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Reservation) Interval() Interval {
	return Interval{Start: r.Start, End: r.End}
}

type Slot struct {
	Start time.Time
	End   time.Time
	Price decimal.Decimal
}

type CourtAvailability struct {
	CourtID   int64
	CourtName string
	Slots     []Slot
}

// ReservationFilter narrows the general reservation listing. Zero values mean "no filter".
type ReservationFilter struct {
	UserID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
}
