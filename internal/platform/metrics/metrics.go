package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// New creates and registers the transport metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkage_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "linkage_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

// ObserveHTTPRequest records one finished request.
func (m *Metrics) ObserveHTTPRequest(method, route, code string, seconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(seconds)
}
