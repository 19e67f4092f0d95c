package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/court-reservations/internal/config"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

type ReservationManager interface {
	Create(ctx context.Context, userID, courtID int64, start, end time.Time) (int64, error)
	FindByID(ctx context.Context, id int64) (domain.Reservation, error)
	FindByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error)
	UpdateFull(ctx context.Context, id int64, u domain.FullUpdate) (domain.Reservation, error)
	UpdatePartial(ctx context.Context, id int64, p domain.Patch) (domain.Reservation, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type AvailabilityFinder interface {
	GetAvailability(ctx context.Context, day *time.Time, clubID, sportID *int64) ([]domain.CourtAvailability, error)
}

type SportsLister interface {
	List(ctx context.Context) ([]domain.Sport, error)
}

type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(token string) (int64, error)
}

type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	serviceName  string
	loc          *time.Location
	reservations ReservationManager
	availability AvailabilityFinder
	sports       SportsLister
	auth         Authenticator
	ready        ReadinessChecker
	validator    *RequestValidator
	logger       observability.Logger
	now          func() time.Time
}

func NewHandlers(cfg *config.Config, reservations ReservationManager, availability AvailabilityFinder, sports SportsLister, auth Authenticator, ready ReadinessChecker, logger observability.Logger) *Handlers {
	return &Handlers{
		serviceName:  cfg.ServiceName,
		loc:          cfg.Location(),
		reservations: reservations,
		availability: availability,
		sports:       sports,
		auth:         auth,
		ready:        ready,
		validator:    NewRequestValidator(),
		logger:       logger,
		now:          time.Now,
	}
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.serviceName,
		"time":    h.now().In(h.loc).Format(time.RFC3339),
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.ready.Ping(r.Context()); err != nil {
		writeFailure(w, http.StatusServiceUnavailable, CodeServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, CodeNotFound, "endpoint not found")
}

func (h *Handlers) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.sports.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]sportDTO, 0, len(sports))
	for _, s := range sports {
		out = append(out, sportDTO{ID: s.ID, Name: s.Name})
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var day *time.Time
	if raw := q.Get("date"); raw != "" {
		d, err := domain.ParseDate(raw, h.loc)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		day = &d
	}
	clubID, err := optionalID(q.Get("club_id"), "club_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sportID, err := optionalID(q.Get("sport_id"), "sport_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	av, err := h.availability.GetAvailability(r.Context(), day, clubID, sportID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toAvailabilityDTOs(av, h.loc))
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"id": u.ID, "name": u.Name, "email": u.Email})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID, _ = userIDFrom(r.Context())
	}
	if userID == 0 {
		h.writeError(w, r, domain.Validationf("user_id is required"))
		return
	}
	start, end, err := h.interval(req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.reservations.Create(r.Context(), userID, req.CourtID, start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if mine := q.Get("mine"); mine == "true" || mine == "1" {
		userID, ok := userIDFrom(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, CodeUnauthorized, "a bearer token is required for mine=true")
			return
		}
		rs, err := h.reservations.FindByUser(r.Context(), userID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, toReservationDTOs(rs, h.loc))
		return
	}

	var f domain.ReservationFilter
	var err error
	if f.UserID, err = optionalID(q.Get("user_id"), "user_id"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if f.DateFrom, err = h.filterTime(q.Get("date_from"), "date_from", false); err != nil {
		h.writeError(w, r, err)
		return
	}
	if f.DateTo, err = h.filterTime(q.Get("date_to"), "date_to", true); err != nil {
		h.writeError(w, r, err)
		return
	}

	rs, err := h.reservations.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toReservationDTOs(rs, h.loc))
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	res, err := h.reservations.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toReservationDTO(res, h.loc))
}

func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	changed, err := h.reservations.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"id": id, "changed": changed})
}

func (h *Handlers) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, end, err := h.interval(req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u := domain.FullUpdate{UserID: req.UserID, CourtID: req.CourtID, Start: start, End: end, Total: req.Total}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		u.Status = &st
	}

	res, err := h.reservations.UpdateFull(r.Context(), id, u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toReservationDTO(res, h.loc))
}

func (h *Handlers) PatchReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeFailure(w, http.StatusUnprocessableEntity, CodeValidation, "invalid JSON body")
		return
	}
	p, err := domain.ParsePatch(fields, h.loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.reservations.UpdatePartial(r.Context(), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toReservationDTO(res, h.loc))
}

func (h *Handlers) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.reservations.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"id": id})
}

// decode reads a JSON body into dst and validates it; it writes the failure response itself.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFailure(w, http.StatusUnprocessableEntity, CodeValidation, "invalid JSON body")
		return false
	}
	if err := h.validator.Validate(dst); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(w, http.StatusNotFound, CodeNotFound, "reservation not found")
		return 0, false
	}
	return id, true
}

func (h *Handlers) interval(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := domain.ParseTimestamp(rawStart, h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := domain.ParseTimestamp(rawEnd, h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// filterTime accepts a timestamp or a bare date. A bare date used as an upper bound
// covers the whole day.
func (h *Handlers) filterTime(raw, field string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := domain.ParseTimestamp(raw, h.loc); err == nil {
		return &t, nil
	}
	d, err := domain.ParseDate(raw, h.loc)
	if err != nil {
		return nil, domain.Validationf("%s must be a date or timestamp", field)
	}
	if upper {
		d = d.AddDate(0, 0, 1)
	}
	return &d, nil
}

func optionalID(raw, field string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.Validationf("%s must be a positive integer", field)
	}
	return &id, nil
}
