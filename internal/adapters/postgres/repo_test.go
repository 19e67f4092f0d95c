package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/court-reservations/internal/adapters/postgres"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "courts",
				"POSTGRES_PASSWORD": "courts",
				"POSTGRES_DB":       "courts",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("postgres://courts:courts@%s:%s/courts?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(pool); err != nil {
		t.Fatal(err)
	}
	return postgres.NewRepository(pool)
}

func slot(hour, min int) time.Time {
	return time.Date(2030, 3, 4, hour, min, 0, 0, time.UTC)
}

func createUser(t *testing.T, repo *postgres.Repository, email string) domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), domain.User{Name: "Ana", Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// book runs the same lock, check, insert sequence the reservation service uses.
func book(ctx context.Context, repo *postgres.Repository, userID, courtID int64, start, end time.Time) (int64, error) {
	var id int64
	err := repo.WithTx(ctx, func(q domain.ReservationQueries) error {
		court, err := q.LockCourt(ctx, courtID)
		if err != nil {
			return err
		}
		iv := domain.Interval{Start: start, End: end}
		conflict, err := q.HasConflict(ctx, courtID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return domain.Conflictf("busy")
		}
		id, err = q.InsertReservation(ctx, domain.NewReservation(userID, court, iv))
		return err
	})
	return id, err
}

func TestRepository_Booking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	user := createUser(t, repo, "ana@example.com")

	first, err := book(ctx, repo, user.ID, 1, slot(10, 0), slot(11, 0))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := book(ctx, repo, user.ID, 1, slot(10, 30), slot(11, 30)); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
	if _, err := book(ctx, repo, user.ID, 1, slot(11, 0), slot(12, 0)); err != nil {
		t.Errorf("expected touching interval to be accepted, got %v", err)
	}
	if _, err := book(ctx, repo, user.ID, 2, slot(10, 0), slot(11, 0)); err != nil {
		t.Errorf("expected other court to be accepted, got %v", err)
	}
	if _, err := book(ctx, repo, user.ID, 999, slot(10, 0), slot(11, 0)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for unknown court, got %v", err)
	}

	got, err := repo.FindReservation(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending || got.CourtName != "Quadra 1" {
		t.Errorf("unexpected reservation %+v", got)
	}
	if !got.Start.Equal(slot(10, 0)) || !got.End.Equal(slot(11, 0)) {
		t.Errorf("unexpected interval %v - %v", got.Start, got.End)
	}
	if !got.Total.Valid || !got.Total.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected total 80, got %v", got.Total)
	}
}

func TestRepository_ExclusionConstraint(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	user := createUser(t, repo, "bia@example.com")

	r := domain.Reservation{UserID: user.ID, CourtID: 1, Start: slot(10, 0), End: slot(11, 0), Status: domain.StatusConfirmed}
	if _, err := repo.InsertReservation(ctx, r); err != nil {
		t.Fatal(err)
	}

	overlapping := r
	overlapping.Start, overlapping.End = slot(10, 30), slot(11, 30)
	if _, err := repo.InsertReservation(ctx, overlapping); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected exclusion violation to map to conflict, got %v", err)
	}

	overlapping.Status = domain.StatusCancelled
	if _, err := repo.InsertReservation(ctx, overlapping); err != nil {
		t.Errorf("expected cancelled row to be exempt, got %v", err)
	}

	reversed := r
	reversed.Start, reversed.End = slot(15, 0), slot(14, 0)
	if _, err := repo.InsertReservation(ctx, reversed); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected check violation to map to validation, got %v", err)
	}
}

func TestRepository_CancelAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	user := createUser(t, repo, "caio@example.com")

	id, err := book(ctx, repo, user.ID, 1, slot(9, 0), slot(10, 0))
	if err != nil {
		t.Fatal(err)
	}

	changed, err := repo.CancelReservation(ctx, id)
	if err != nil || !changed {
		t.Fatalf("expected first cancel to change the row, got %v %v", changed, err)
	}
	changed, err = repo.CancelReservation(ctx, id)
	if err != nil || changed {
		t.Errorf("expected second cancel to report no change, got %v %v", changed, err)
	}
	if _, err := repo.CancelReservation(ctx, 424242); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	if _, err := book(ctx, repo, user.ID, 1, slot(9, 0), slot(10, 0)); err != nil {
		t.Errorf("expected cancelled slot to be bookable again, got %v", err)
	}

	if err := repo.DeleteReservation(ctx, 424242); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := repo.DeleteReservation(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FindReservation(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected deleted reservation to be gone, got %v", err)
	}
}

func TestRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	ana := createUser(t, repo, "ana@example.com")
	bia := createUser(t, repo, "bia@example.com")

	for _, b := range []struct {
		user       int64
		court      int64
		start, end time.Time
	}{
		{ana.ID, 1, slot(8, 0), slot(9, 0)},
		{ana.ID, 2, slot(12, 0), slot(13, 0)},
		{bia.ID, 1, slot(15, 0), slot(16, 0)},
	} {
		if _, err := book(ctx, repo, b.user, b.court, b.start, b.end); err != nil {
			t.Fatal(err)
		}
	}

	mine, err := repo.ReservationsByUser(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || !mine[0].Start.Equal(slot(12, 0)) || mine[0].CourtName != "Quadra 2" {
		t.Errorf("expected newest first with court name, got %+v", mine)
	}

	from, to := slot(11, 0), slot(16, 0)
	filtered, err := repo.ListReservations(ctx, domain.ReservationFilter{DateFrom: &from, DateTo: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 || filtered[0].UserID != bia.ID {
		t.Errorf("unexpected filtered listing %+v", filtered)
	}

	active, err := repo.ActiveReservationsBetween(ctx, slot(0, 0), slot(23, 59))
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 3 {
		t.Errorf("expected 3 active reservations, got %d", len(active))
	}

	purged, err := repo.PurgeStartedBefore(ctx, slot(13, 0))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 2 {
		t.Errorf("expected 2 purged rows, got %d", purged)
	}
}

func TestRepository_CatalogAndUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	sports, err := repo.Sports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sports) != 3 {
		t.Errorf("expected 3 seeded sports, got %d", len(sports))
	}

	club := int64(1)
	courts, err := repo.Courts(ctx, &club, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(courts) != 3 || courts[0].ID >= courts[1].ID {
		t.Errorf("expected club courts ordered by id, got %+v", courts)
	}
	if courts[0].OpensAt != 7*time.Hour || courts[0].ClosesAt != 22*time.Hour || courts[0].SlotMinutes != 60 {
		t.Errorf("unexpected opening hours %+v", courts[0])
	}

	createUser(t, repo, "dup@example.com")
	if _, err := repo.CreateUser(ctx, domain.User{Name: "Dup", Email: "dup@example.com", PasswordHash: "x"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected duplicate email conflict, got %v", err)
	}
	if _, err := repo.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRepository_Outbox(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	evt, err := domain.NewReservationEvent(domain.EventReservationCreated, domain.Reservation{ID: 7, Status: domain.StatusPending}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertOutbox(ctx, evt); err != nil {
		t.Fatal(err)
	}

	var published []string
	sent, err := repo.DispatchOutbox(ctx, 10, func(ctx context.Context, rec postgres.OutboxRecord) error {
		published = append(published, rec.EventType)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 || len(published) != 1 || published[0] != domain.EventReservationCreated {
		t.Errorf("unexpected dispatch result sent=%d published=%v", sent, published)
	}

	oldest, err := repo.OldestUnpublished(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if oldest != nil {
		t.Errorf("expected drained outbox, got %v", oldest)
	}
}
