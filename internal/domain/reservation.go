package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

const DefaultSlotMinutes = 60

// ActiveStatuses occupy a court.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", Validationf("status must be one of pending, confirmed, cancelled")
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Interval is half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Validate() error {
	if !i.Start.Before(i.End) {
		return Validationf("start_datetime must be before end_datetime")
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Touching endpoints do not.
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(bEnd.Compare(aStart) <= 0 || bStart.Compare(aEnd) >= 0)
}

// ConflictsWith applies the booking rule: only active reservations on the same court block an interval.
func (r Reservation) ConflictsWith(courtID int64, iv Interval) bool {
	return r.CourtID == courtID && r.Status.IsActive() && r.Interval().Overlaps(iv)
}

// NewReservation builds a pending reservation priced from the court.
func NewReservation(userID int64, court Court, iv Interval) Reservation {
	return Reservation{
		UserID:  userID,
		CourtID: court.ID,
		Start:   iv.Start,
		End:     iv.End,
		Status:  StatusPending,
		Total:   decimal.NewNullDecimal(Total(court, iv)),
	}
}

// Total prices an interval pro rata on the court's slot price.
func Total(court Court, iv Interval) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(iv.End.Sub(iv.Start) / time.Minute))
	slot := decimal.NewFromInt(int64(court.SlotDuration() / time.Minute))
	return court.PricePerSlot.Mul(minutes).Div(slot).Round(2)
}

// FullUpdate replaces every mutable field; Status and Total are optional overrides.
type FullUpdate struct {
	UserID  int64
	CourtID int64
	Start   time.Time
	End     time.Time
	Status  *Status
	Total   *decimal.Decimal
}

func (u FullUpdate) Validate() error {
	if u.UserID <= 0 {
		return Validationf("user_id is required")
	}
	if u.CourtID <= 0 {
		return Validationf("court_id is required")
	}
	if u.Start.IsZero() {
		return Validationf("start_datetime is required")
	}
	if u.End.IsZero() {
		return Validationf("end_datetime is required")
	}
	return Interval{Start: u.Start, End: u.End}.Validate()
}

func (u FullUpdate) Apply(r Reservation) Reservation {
	r.UserID = u.UserID
	r.CourtID = u.CourtID
	r.Start = u.Start
	r.End = u.End
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Total != nil {
		r.Total = decimal.NewNullDecimal(*u.Total)
	}
	return r
}
