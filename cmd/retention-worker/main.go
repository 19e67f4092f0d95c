package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/court-reservations/internal/adapters/postgres"
	"github.com/robertarktes/court-reservations/internal/config"
	"github.com/robertarktes/court-reservations/internal/observability"
	"github.com/robertarktes/court-reservations/internal/retention"
)

func main() {
	once := flag.Bool("once", false, "run the purge once and exit")
	timeout := flag.Duration("timeout", 2*time.Minute, "time limit for a single purge")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool)

	job := retention.NewJob(repo, cfg.RetentionDays, logger)

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			log.Fatalf("retention run failed: %v", err)
		}
		return
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location()))
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if _, err := retention.Schedule(scheduler, cfg.RetentionCron, job, *timeout); err != nil {
		log.Fatalf("failed to schedule retention job: %v", err)
	}

	// Catch up once at boot instead of waiting for the first cron tick.
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	if _, err := job.Run(ctx); err != nil {
		logger.WithField("error", err.Error()).Error("initial retention run failed")
	}
	cancel()

	scheduler.Start()
	logger.WithField("cron", cfg.RetentionCron).WithField("days", cfg.RetentionDays).Info("Retention worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown retention worker")
	if err := scheduler.Shutdown(); err != nil {
		logger.WithField("error", err.Error()).Error("scheduler shutdown failed")
	}
}
