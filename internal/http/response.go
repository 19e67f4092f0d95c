package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/shopspring/decimal"
)

type envelope struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRateLimited  = "RATE_LIMITED"
	CodeServerError  = "SERVER_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Status: "error", Error: &errorBody{Code: code, Message: message}})
}

// classify maps an error to its HTTP status and envelope code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	}
	return http.StatusInternalServerError, CodeServerError
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context(), h.logger).WithField("error", err.Error()).Error("request failed")
	}
	writeFailure(w, status, code, err.Error())
}

type reservationDTO struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	CourtID   int64         `json:"court_id"`
	CourtName string        `json:"court_name,omitempty"`
	Start     string        `json:"start_datetime"`
	End       string        `json:"end_datetime"`
	Status    domain.Status `json:"status"`
	Total     *json.Number  `json:"total"`
	CreatedAt string        `json:"created_at,omitempty"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

type slotDTO struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Price json.Number `json:"price"`
}

type courtAvailabilityDTO struct {
	CourtID   int64     `json:"court_id"`
	CourtName string    `json:"court_name"`
	Slots     []slotDTO `json:"slots"`
}

type sportDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return domain.FormatTimestamp(t, loc)
}

func toReservationDTO(r domain.Reservation, loc *time.Location) reservationDTO {
	dto := reservationDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		CourtID:   r.CourtID,
		CourtName: r.CourtName,
		Start:     formatTime(r.Start, loc),
		End:       formatTime(r.End, loc),
		Status:    r.Status,
		CreatedAt: formatTime(r.CreatedAt, loc),
		UpdatedAt: formatTime(r.UpdatedAt, loc),
	}
	if r.Total.Valid {
		n := number(r.Total.Decimal)
		dto.Total = &n
	}
	return dto
}

func toReservationDTOs(rs []domain.Reservation, loc *time.Location) []reservationDTO {
	out := make([]reservationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationDTO(r, loc))
	}
	return out
}

func toAvailabilityDTOs(av []domain.CourtAvailability, loc *time.Location) []courtAvailabilityDTO {
	out := make([]courtAvailabilityDTO, 0, len(av))
	for _, c := range av {
		slots := make([]slotDTO, 0, len(c.Slots))
		for _, s := range c.Slots {
			slots = append(slots, slotDTO{Start: formatTime(s.Start, loc), End: formatTime(s.End, loc), Price: number(s.Price)})
		}
		out = append(out, courtAvailabilityDTO{CourtID: c.CourtID, CourtName: c.CourtName, Slots: slots})
	}
	return out
}
