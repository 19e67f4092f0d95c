package retention

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron/v2"
	"github.com/robertarktes/court-reservations/internal/observability"
)

const JobName = "reservation_retention"

type Purger interface {
	PurgeStartedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job deletes reservations, in any status, that started more than the retention window ago.
type Job struct {
	store  Purger
	days   int
	logger observability.Logger
	now    func() time.Time
}

func NewJob(store Purger, days int, logger observability.Logger) *Job {
	return &Job{store: store, days: days, logger: logger, now: time.Now}
}

func (j *Job) Cutoff() time.Time {
	return j.now().AddDate(0, 0, -j.days)
}

func (j *Job) Run(ctx context.Context) (int64, error) {
	cutoff := j.Cutoff()
	n, err := j.store.PurgeStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge old reservations")
	}
	observability.ReservationsPurged.Add(float64(n))
	j.logger.WithField("cutoff", cutoff.Format(time.RFC3339)).Info(fmt.Sprintf("deleted %d old reservations", n))
	return n, nil
}

// Schedule registers j on s under cronExpr. Runs never overlap; each gets timeout to finish.
func Schedule(s gocron.Scheduler, cronExpr string, j *Job, timeout time.Duration) (gocron.Job, error) {
	if strings.TrimSpace(cronExpr) == "" {
		return nil, errors.New("cron expression is required")
	}
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.logger.WithField("error", err.Error()).Error("retention job failed")
		}
	}
	job, err := s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		gocron.WithName(JobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s", JobName)
	}
	return job, nil
}
