package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/court-reservations/internal/idempotency"
	"github.com/robertarktes/court-reservations/internal/observability"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl Limiter, perMinute int, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, CodeNotFound, "method not allowed")
	})

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(rl, perMinute, logger))
		r.Use(JWTMiddleware(h.auth))

		r.Get("/sports", h.ListSports)
		r.Get("/availability", h.GetAvailability)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Route("/reservations", func(r chi.Router) {
			r.With(IdempotencyMiddleware(idemp, logger)).Post("/", h.CreateReservation)
			r.Get("/", h.ListReservations)
			r.Get("/{id}", h.GetReservation)
			r.Put("/{id}/cancel", h.CancelReservation)
			r.Put("/{id}", h.UpdateReservation)
			r.Patch("/{id}", h.PatchReservation)
			r.Delete("/{id}", h.DeleteReservation)
		})
	})

	return r
}
