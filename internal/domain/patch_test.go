package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/domain"
)

func fields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParsePatch(t *testing.T) {
	p, err := domain.ParsePatch(fields(t, `{"status":"confirmed","end_datetime":"2025-12-01 12:00:00","court_id":"4"}`), time.UTC)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.Status == nil || *p.Status != domain.StatusConfirmed {
		t.Errorf("expected confirmed status, got %v", p.Status)
	}
	if p.CourtID == nil || *p.CourtID != 4 {
		t.Errorf("expected court 4, got %v", p.CourtID)
	}
	if p.End == nil || !p.End.Equal(at(12, 0)) {
		t.Errorf("expected end 12:00, got %v", p.End)
	}
	if p.UserID != nil || p.Start != nil || p.Total != nil {
		t.Errorf("expected untouched fields to stay nil")
	}
}

func TestParsePatch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty", `{}`, "no fields to update"},
		{"only nulls", `{"status":null}`, "no fields to update"},
		{"unknown", `{"status":"pending","colour":"red"}`, "unknown fields: colour"},
		{"bad status", `{"status":"done"}`, "status must be one of pending, confirmed, cancelled"},
		{"bad id", `{"user_id":-3}`, "user_id must be a positive integer"},
		{"bad total", `{"total":"abc"}`, "total must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParsePatch(fields(t, tt.body), time.UTC)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, err.Error())
			}
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	r := domain.Reservation{ID: 1, UserID: 1, CourtID: 1, Start: at(10, 0), End: at(11, 0), Status: domain.StatusPending}
	p, err := domain.ParsePatch(fields(t, `{"start_datetime":"2025-12-01T09:00:00Z","total":42.5}`), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	got := p.Apply(r)
	if !got.Start.Equal(at(9, 0)) || !got.End.Equal(at(11, 0)) {
		t.Errorf("unexpected interval %v - %v", got.Start, got.End)
	}
	if !got.Total.Valid || got.Total.Decimal.String() != "42.5" {
		t.Errorf("expected total 42.5, got %v", got.Total)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("expected status untouched, got %s", got.Status)
	}
}
