package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courts_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courts_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courts_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReservationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_reservation_conflicts_total",
			Help: "Bookings and updates rejected because the court was taken",
		},
	)

	ReservationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_reservations_purged_total",
			Help: "Reservations removed by the retention job",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courts_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	OutboxPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_outbox_published_total",
			Help: "Outbox records published to the broker",
		},
	)

	RabbitPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_rabbit_publish_failures_total",
			Help: "Failed publishes to the broker",
		},
	)

	AuditEventsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courts_audit_events_total",
			Help: "Audit events written, by event type",
		},
		[]string{"event_type"},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	IdempotentReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courts_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		},
	)
)
