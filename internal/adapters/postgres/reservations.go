package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/court-reservations/internal/domain"
)

const reservationSelect = `
	SELECT r.id, r.user_id, r.court_id, c.name, r.start_datetime, r.end_datetime, r.status, r.total, r.created_at, r.updated_at
	FROM reservations r
	JOIN courts c ON c.id = r.court_id`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var status string
	err := row.Scan(&res.ID, &res.UserID, &res.CourtID, &res.CourtName, &res.Start, &res.End, &status, &res.Total, &res.CreatedAt, &res.UpdatedAt)
	res.Status = domain.Status(status)
	return res, err
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()
	reservations := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (q *Queries) LockCourt(ctx context.Context, courtID int64) (domain.Court, error) {
	c, err := scanCourt(q.db.QueryRow(ctx, courtSelect+` WHERE id = $1 FOR UPDATE`, courtID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Court{}, domain.NotFoundf("court %d not found", courtID)
	}
	return c, err
}

func (q *Queries) HasConflict(ctx context.Context, courtID int64, start, end time.Time) (bool, error) {
	return q.HasConflictExcluding(ctx, courtID, start, end, 0)
}

// HasConflictExcluding ignores the reservation excludeID so that an update does not collide with itself.
func (q *Queries) HasConflictExcluding(ctx context.Context, courtID int64, start, end time.Time, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE court_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND NOT (end_datetime <= $2 OR start_datetime >= $3)
			  AND id <> $4
		)
	`, courtID, start, end, excludeID).Scan(&exists)
	return exists, err
}

func (q *Queries) InsertReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO reservations (user_id, court_id, start_datetime, end_datetime, status, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.UserID, r.CourtID, r.Start, r.End, string(r.Status), r.Total).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (q *Queries) FindReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := scanReservation(q.db.QueryRow(ctx, reservationSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reservation{}, domain.NotFoundf("reservation %d not found", id)
	}
	return res, err
}

func (q *Queries) LockReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := scanReservation(q.db.QueryRow(ctx, reservationSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reservation{}, domain.NotFoundf("reservation %d not found", id)
	}
	return res, err
}

func (q *Queries) ReservationsByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := q.db.Query(ctx, reservationSelect+` WHERE r.user_id = $1 ORDER BY r.start_datetime DESC, r.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (q *Queries) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.UserID != nil {
		add("r.user_id = ?", *f.UserID)
	}
	if f.DateFrom != nil {
		add("r.start_datetime >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("r.end_datetime <= ?", *f.DateTo)
	}

	sql := reservationSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY r.start_datetime DESC, r.id DESC"

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ActiveReservationsBetween returns pending and confirmed reservations overlapping [from, to).
func (q *Queries) ActiveReservationsBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	rows, err := q.db.Query(ctx, reservationSelect+`
		WHERE r.status IN ('pending', 'confirmed')
		  AND NOT (r.end_datetime <= $1 OR r.start_datetime >= $2)
		ORDER BY r.court_id, r.start_datetime
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (q *Queries) SaveReservation(ctx context.Context, r domain.Reservation) error {
	result, err := q.db.Exec(ctx, `
		UPDATE reservations
		SET user_id = $2, court_id = $3, start_datetime = $4, end_datetime = $5, status = $6, total = $7, updated_at = now()
		WHERE id = $1
	`, r.ID, r.UserID, r.CourtID, r.Start, r.End, string(r.Status), r.Total)
	if err != nil {
		return mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFoundf("reservation %d not found", r.ID)
	}
	return nil
}

// CancelReservation reports whether the row changed. A reservation that is already
// cancelled yields false; a missing one yields a not-found error.
func (q *Queries) CancelReservation(ctx context.Context, id int64) (bool, error) {
	result, err := q.db.Exec(ctx, `
		UPDATE reservations SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
	`, id)
	if err != nil {
		return false, mapError(err)
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.NotFoundf("reservation %d not found", id)
	}
	return false, nil
}

func (q *Queries) DeleteReservation(ctx context.Context, id int64) error {
	result, err := q.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFoundf("reservation %d not found", id)
	}
	return nil
}

// PurgeStartedBefore hard-deletes every reservation, whatever its status, that started before cutoff.
func (q *Queries) PurgeStartedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.Exec(ctx, `DELETE FROM reservations WHERE start_datetime < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
