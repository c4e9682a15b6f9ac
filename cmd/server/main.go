package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	jwttoken "linkage/internal/jwt_token"
	"linkage/internal/linkage/handler"
	"linkage/internal/linkage/hashing"
	linkagemetrics "linkage/internal/linkage/metrics"
	"linkage/internal/linkage/service"
	"linkage/internal/linkage/store"
	"linkage/internal/platform/config"
	"linkage/internal/platform/httpserver"
	"linkage/internal/platform/logger"
	"linkage/internal/platform/metrics"
	"linkage/internal/platform/middleware"
	"linkage/internal/platform/postgres"
	platformredis "linkage/internal/platform/redis"
	audit "linkage/pkg/platform/audit"
	auditkafka "linkage/pkg/platform/audit/kafka"
	auditmemory "linkage/pkg/platform/audit/store/memory"
	auditpostgres "linkage/pkg/platform/audit/store/postgres"
	"linkage/pkg/platform/circuit"
)

// infra collects what main opens so shutdown can close it in reverse order.
type infra struct {
	db      *sql.DB
	closers []func() error
}

func (i *infra) onClose(fn func() error) {
	i.closers = append(i.closers, fn)
}

func (i *infra) close(log *slog.Logger) {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](); err != nil {
			log.Warn("failed to close resource", "error", err)
		}
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("linkage service stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	res := &infra{}
	defer res.close(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hasher, err := hashing.New(cfg.Hash.Algorithm, cfg.Hash.Pepper)
	if err != nil {
		return fmt.Errorf("configure hashing: %w", err)
	}

	linkageStore, pinger, err := openStore(ctx, cfg, res)
	if err != nil {
		return err
	}

	auditStore, err := openAuditSink(ctx, cfg, res)
	if err != nil {
		return err
	}
	publisher := audit.NewPublisher(auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics(reg)),
		audit.WithBreaker(circuit.New("audit-sink")),
	)

	svc := service.New(linkageStore,
		service.WithNormalizer(hashing.NewNormalizer(hasher)),
		service.WithLogger(log),
		service.WithMetrics(linkagemetrics.New(reg)),
		service.WithAuditor(publisher),
	)

	routerOpts := handler.RouterOptions{
		Logger:   log,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}
	if cfg.Limit.Enabled() {
		routerOpts.RateLimiter = middleware.NewRateLimiter(cfg.Limit.PerSecond, cfg.Limit.Burst)
	}
	if cfg.AuthEnabled() {
		tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.ServiceIssuer, jwttoken.ServiceAudience)
		routerOpts.Validator = tokens.Validator()
	}

	srv := httpserver.New(cfg.Addr, handler.NewRouter(handler.New(svc, log, pinger), routerOpts), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting linkage service",
			"addr", cfg.Addr,
			"store", cfg.Store,
			"hash", cfg.Hash.Algorithm,
			"auth", cfg.AuthEnabled(),
			"kafka_audit", len(cfg.Kafka.Brokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down linkage service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Server, res *infra) (service.Store, handler.Pinger, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		res.db = db
		res.onClose(db.Close)
		if err := store.Migrate(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		s := store.NewPostgres(db)
		return s, s, nil
	case config.StoreRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		res.onClose(client.Close)
		s := store.NewRedis(client.Client)
		return s, s, nil
	default:
		return store.NewInMemoryStore(), nil, nil
	}
}

// openAuditSink prefers Kafka, then the linkage database, then memory.
func openAuditSink(ctx context.Context, cfg config.Server, res *infra) (audit.Store, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		if res.db != nil {
			if err := auditpostgres.EnsureSchema(ctx, res.db); err != nil {
				return nil, err
			}
			return auditpostgres.New(res.db), nil
		}
		return auditmemory.NewInMemoryStore(auditmemory.WithCapacity(10_000)), nil
	}
	client, err := auditkafka.Dial(ctx, auditkafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AuditTopic,
	})
	if err != nil {
		return nil, err
	}
	res.onClose(func() error {
		client.Close()
		return nil
	})
	return auditkafka.New(client, cfg.Kafka.AuditTopic), nil
}
