package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the linkage module.
// Tracks request outcomes per action and handler durations.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreFailures   *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_requests_total",
			Help: "Total number of linkage requests by action, status and reason",
		}, []string{"action", "status", "reason"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkage_request_duration_seconds",
			Help:    "Duration of linkage request handling by action",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"action"}),
		StoreFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_store_failures_total",
			Help: "Total number of store errors surfaced as ERROR responses",
		}, []string{"action"}),
	}
}

// ObserveRequest records one dispatched request.
// Call with time.Now() taken at the start of dispatch.
func (m *Metrics) ObserveRequest(action, status, reason string, start time.Time) {
	m.RequestsTotal.WithLabelValues(action, status, reason).Inc()
	m.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// IncrementStoreFailures records a store error for action.
func (m *Metrics) IncrementStoreFailures(action string) {
	m.StoreFailures.WithLabelValues(action).Inc()
}
