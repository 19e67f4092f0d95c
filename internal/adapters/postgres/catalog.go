package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/robertarktes/court-reservations/internal/domain"
)

const courtSelect = `
	SELECT id, club_id, sport_id, name, price_per_slot, opens_at, closes_at, slot_minutes
	FROM courts`

func scanCourt(row pgx.Row) (domain.Court, error) {
	var c domain.Court
	var opens, closes pgtype.Time
	err := row.Scan(&c.ID, &c.ClubID, &c.SportID, &c.Name, &c.PricePerSlot, &opens, &closes, &c.SlotMinutes)
	c.OpensAt = time.Duration(opens.Microseconds) * time.Microsecond
	c.ClosesAt = time.Duration(closes.Microseconds) * time.Microsecond
	return c, err
}

func (q *Queries) Sports(ctx context.Context) ([]domain.Sport, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name FROM sports ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sports := []domain.Sport{}
	for rows.Next() {
		var s domain.Sport
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		sports = append(sports, s)
	}
	return sports, rows.Err()
}

// Courts lists courts ordered by id, optionally narrowed to a club and/or a sport.
func (q *Queries) Courts(ctx context.Context, clubID, sportID *int64) ([]domain.Court, error) {
	var where []string
	var args []any
	if clubID != nil {
		args = append(args, *clubID)
		where = append(where, "club_id = $"+strconv.Itoa(len(args)))
	}
	if sportID != nil {
		args = append(args, *sportID)
		where = append(where, "sport_id = $"+strconv.Itoa(len(args)))
	}
	sql := courtSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY id"

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := []domain.Court{}
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (q *Queries) Court(ctx context.Context, id int64) (domain.Court, error) {
	c, err := scanCourt(q.db.QueryRow(ctx, courtSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Court{}, domain.NotFoundf("court %d not found", id)
	}
	return c, err
}
