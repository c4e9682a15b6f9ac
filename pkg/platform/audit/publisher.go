// Package audit records who did what to which linkage record.
//
// The Publisher is best-effort: a sink failure is logged and counted but
// never fails the calling operation, because the linkage response contract
// has no audit outcome.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"linkage/pkg/platform/circuit"
	"linkage/pkg/requestcontext"
)

// Metrics counts audit outcomes.
type Metrics struct {
	EventsEmitted   prometheus.Counter
	PersistFailures prometheus.Counter
	EventsDropped   prometheus.Counter
}

// NewMetrics registers audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkage_audit_events_emitted_total",
			Help: "Total number of audit events persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkage_audit_persist_failures_total",
			Help: "Total number of audit events the sink rejected",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "linkage_audit_events_dropped_total",
			Help: "Total number of audit events skipped while the sink circuit was open",
		}),
	}
}

// Publisher enriches events from the request context and hands them to a Store.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBreaker skips the sink while b is open so an unreachable sink does not
// add its timeout to every request.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in timestamp, request id and actor from ctx when unset, then
// appends the event. Errors are swallowed after logging.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.store == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.ClientID(ctx)
	}

	if p.breaker != nil && !p.breaker.Allow() {
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		return
	}

	start := time.Now()
	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Inc()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"linkage_key", event.LinkageKey,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		if p.breaker != nil {
			if _, change := p.breaker.RecordFailure(); change.Opened && p.logger != nil {
				p.logger.WarnContext(ctx, "audit sink circuit opened", "breaker", p.breaker.Name())
			}
		}
		return
	}
	if p.breaker != nil {
		if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
			p.logger.InfoContext(ctx, "audit sink circuit closed", "breaker", p.breaker.Name())
		}
	}
	if p.metrics != nil {
		p.metrics.EventsEmitted.Inc()
	}
	if p.logger != nil {
		p.logger.DebugContext(ctx, "audit event appended",
			"action", event.Action,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
