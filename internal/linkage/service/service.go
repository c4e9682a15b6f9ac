package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linkage/internal/linkage/hashing"
	"linkage/internal/linkage/metrics"
	"linkage/internal/linkage/models"
	audit "linkage/pkg/platform/audit"
	"linkage/pkg/requestcontext"
)

// Store persists identity records. Implementations make each call atomic
// with respect to concurrent calls on the same record and return
// sentinel.ErrNotFound for a missing record or an unmatched composite key.
type Store interface {
	// Save inserts or replaces the record. A record without a linkage key is
	// assigned a fresh one before it is written.
	Save(ctx context.Context, record *models.PersonIdentity) error
	// Update replaces a record that still exists. It returns
	// sentinel.ErrNotFound when the key is gone, so a concurrent delete is
	// never undone.
	Update(ctx context.Context, record *models.PersonIdentity) error
	FindByID(ctx context.Context, key models.LinkageKey) (*models.PersonIdentity, error)
	Delete(ctx context.Context, record *models.PersonIdentity) error
	FindByCompositeKey(ctx context.Context, key models.CompositeKey) (*models.PersonIdentity, error)
}

// Service dispatches linkage requests to the action handlers. The store
// reference is fixed at construction.
type Service struct {
	store      Store
	normalizer *hashing.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    *audit.Publisher
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithNormalizer overrides the default SHA-256 normalizer.
func WithNormalizer(n *hashing.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(p *audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates a linkage Service over store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		normalizer: hashing.NewNormalizer(nil),
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("linkage/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessRequest validates the request shape, normalizes the action tag and
// routes to exactly one handler. Every path returns a Response; nothing is
// raised past this boundary.
func (s *Service) ProcessRequest(ctx context.Context, req *models.Request) models.Response {
	start := time.Now()
	if req == nil || req.Action == nil {
		return s.finish(ctx, start, "", nil, models.Error(models.ReasonInvalidRequest, models.MsgInvalidRequest))
	}

	action := models.NormalizeAction(*req.Action)
	ctx, span := s.tracer.Start(ctx, "linkage."+spanName(action),
		trace.WithAttributes(attribute.String("linkage.action", string(action))))
	defer span.End()

	var resp models.Response
	switch action {
	case models.ActionInsert:
		resp = s.insert(ctx, req)
	case models.ActionUpdate:
		resp = s.update(ctx, req)
	case models.ActionDelete:
		resp = s.delete(ctx, req)
	case models.ActionSearch:
		resp = s.search(ctx, req)
	default:
		resp = models.Error(models.ReasonInvalidRequest, models.MsgInvalidAction+*req.Action)
	}

	span.SetAttributes(attribute.String("linkage.status", string(resp.Status)))
	if resp.Reason == models.ReasonStoreFailure {
		span.SetStatus(codes.Error, resp.Message)
	}
	return s.finish(ctx, start, action, req, resp)
}

// finish records metrics, logs and audits the outcome.
func (s *Service) finish(ctx context.Context, start time.Time, action models.Action, req *models.Request, resp models.Response) models.Response {
	label := metricLabel(action)
	if s.metrics != nil {
		s.metrics.ObserveRequest(label, string(resp.Status), string(resp.Reason), start)
		if resp.Reason == models.ReasonStoreFailure {
			s.metrics.IncrementStoreFailures(label)
		}
	}

	key := responseKey(req, resp)
	requestID := requestcontext.RequestID(ctx)
	switch resp.Status {
	case models.StatusError:
		level := slog.LevelWarn
		if resp.Reason == models.ReasonStoreFailure {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "linkage request failed",
			"action", label,
			"reason", resp.Reason,
			"message", resp.Message,
			"request_id", requestID,
		)
	default:
		s.logger.InfoContext(ctx, "linkage request handled",
			"action", label,
			"status", resp.Status,
			"linkage_key", key,
			"request_id", requestID,
		)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:     auditEvent(action),
		LinkageKey: key,
		Status:     string(resp.Status),
		Reason:     string(resp.Reason),
	})
	return resp
}

func responseKey(req *models.Request, resp models.Response) string {
	if resp.Record != nil {
		return resp.Record.LinkageKey.String()
	}
	if req != nil && req.OldLinkageKey != nil {
		return *req.OldLinkageKey
	}
	return ""
}

func auditEvent(action models.Action) audit.AuditEvent {
	switch action {
	case models.ActionInsert:
		return audit.EventLinkageInserted
	case models.ActionUpdate:
		return audit.EventLinkageUpdated
	case models.ActionDelete:
		return audit.EventLinkageDeleted
	case models.ActionSearch:
		return audit.EventLinkageSearched
	default:
		return audit.EventLinkageRejected
	}
}

// metricLabel keeps label cardinality bounded: unknown tags collapse to one value.
func metricLabel(action models.Action) string {
	switch action {
	case models.ActionInsert, models.ActionUpdate, models.ActionDelete, models.ActionSearch:
		return string(action)
	default:
		return "INVALID"
	}
}

func spanName(action models.Action) string {
	switch action {
	case models.ActionInsert:
		return "insert"
	case models.ActionUpdate:
		return "update"
	case models.ActionDelete:
		return "delete"
	case models.ActionSearch:
		return "search"
	default:
		return "invalid"
	}
}
