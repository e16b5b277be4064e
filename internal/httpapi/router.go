package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API. limiter may be nil to disable inbound rate limiting.
// With trustProxy the client address, and so the rate limit key, is taken from
// X-Forwarded-For / X-Real-IP; enable it only behind a proxy that sets them.
func NewRouter(h *Handler, limiter *RateLimiter, gatherer prometheus.Gatherer, trustProxy bool) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(Logging(h.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Get("/tour", h.Tour)
		r.Get("/show", h.Show)
		r.Get("/shows/{id}", h.Show)
	})
	return r
}
