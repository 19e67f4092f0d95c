package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Patch carries the subset of reservation fields a partial update touches.
type Patch struct {
	UserID  *int64
	CourtID *int64
	Start   *time.Time
	End     *time.Time
	Status  *Status
	Total   *decimal.Decimal
}

type patchSetter func(p *Patch, raw json.RawMessage, loc *time.Location) error

var patchFields = map[string]patchSetter{
	"user_id": func(p *Patch, raw json.RawMessage, _ *time.Location) error {
		v, err := decodeID("user_id", raw)
		p.UserID = &v
		return err
	},
	"court_id": func(p *Patch, raw json.RawMessage, _ *time.Location) error {
		v, err := decodeID("court_id", raw)
		p.CourtID = &v
		return err
	},
	"start_datetime": func(p *Patch, raw json.RawMessage, loc *time.Location) error {
		v, err := decodeTimestamp("start_datetime", raw, loc)
		p.Start = &v
		return err
	},
	"end_datetime": func(p *Patch, raw json.RawMessage, loc *time.Location) error {
		v, err := decodeTimestamp("end_datetime", raw, loc)
		p.End = &v
		return err
	},
	"status": func(p *Patch, raw json.RawMessage, _ *time.Location) error {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Validationf("status must be a string")
		}
		st, err := ParseStatus(s)
		p.Status = &st
		return err
	},
	"total": func(p *Patch, raw json.RawMessage, _ *time.Location) error {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(raw); err != nil {
			return Validationf("total must be a number")
		}
		p.Total = &d
		return nil
	},
}

// PatchFieldNames lists the fields a partial update accepts.
func PatchFieldNames() []string {
	names := make([]string, 0, len(patchFields))
	for name := range patchFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePatch maps decoded JSON fields onto a Patch. Unknown fields and empty sets are rejected;
// explicit nulls count as absent.
func ParsePatch(fields map[string]json.RawMessage, loc *time.Location) (Patch, error) {
	var unknown []string
	for name := range fields {
		if _, ok := patchFields[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Patch{}, Validationf("unknown fields: %s", strings.Join(unknown, ", "))
	}

	var p Patch
	for _, name := range PatchFieldNames() {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}
		if err := patchFields[name](&p, raw, loc); err != nil {
			return Patch{}, err
		}
	}
	if p.IsEmpty() {
		return Patch{}, Validationf("no fields to update")
	}
	return p, nil
}

func (p Patch) IsEmpty() bool {
	return p.UserID == nil && p.CourtID == nil && p.Start == nil && p.End == nil && p.Status == nil && p.Total == nil
}

// TouchesSchedule reports whether the patch can move the reservation in time or space.
func (p Patch) TouchesSchedule() bool {
	return p.CourtID != nil || p.Start != nil || p.End != nil || p.Status != nil
}

func (p Patch) Apply(r Reservation) Reservation {
	if p.UserID != nil {
		r.UserID = *p.UserID
	}
	if p.CourtID != nil {
		r.CourtID = *p.CourtID
	}
	if p.Start != nil {
		r.Start = *p.Start
	}
	if p.End != nil {
		r.End = *p.End
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Total != nil {
		r.Total = decimal.NewNullDecimal(*p.Total)
	}
	return r
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeID(field string, raw json.RawMessage) (int64, error) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, Validationf("%s must be a positive integer", field)
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, Validationf("%s must be a positive integer", field)
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, Validationf("%s must be a positive integer", field)
	}
	return id, nil
}

func decodeTimestamp(field string, raw json.RawMessage, loc *time.Location) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, Validationf("%s must be a string timestamp", field)
	}
	t, err := ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, Validationf("%s: %s", field, err.Error())
	}
	return t, nil
}
