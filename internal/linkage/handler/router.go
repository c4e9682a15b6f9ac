package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkage/internal/platform/metrics"
	"linkage/internal/platform/middleware"
	"linkage/pkg/platform/middleware/requesttime"
)

// RouterOptions carries the transport dependencies around the handler.
type RouterOptions struct {
	Logger *slog.Logger
	// Validator enables bearer authentication on the linkage routes when set.
	Validator middleware.JWTValidator
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Timeout   time.Duration
	// RateLimiter throttles each caller on the linkage routes when set.
	RateLimiter *middleware.RateLimiter
}

// NewRouter assembles the full HTTP surface. /health and /metrics stay
// unauthenticated.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(opts.Metrics))

	r.Get("/health", h.HandleHealth)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(jsonTimeout(timeout))
		if opts.Validator != nil {
			r.Use(middleware.RequireAuth(opts.Validator, logger))
		}
		if opts.RateLimiter != nil {
			r.Use(middleware.RateLimit(opts.RateLimiter, logger))
		}
		h.Register(r)
	})
	return r
}

// jsonTimeout answers 503 with an ERROR response once a linkage request runs
// past timeout. http.TimeoutHandler writes its body straight to w, so the
// content type is set up front; a handler that finishes in time sets its own.
func jsonTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := http.TimeoutHandler(next, timeout, `{"status":"ERROR","message":"Request timed out"}`)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			timed.ServeHTTP(w, r)
		})
	}
}
