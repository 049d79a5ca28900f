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
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"tokenscope/internal/acl/handler"
	"tokenscope/internal/acl/service"
	"tokenscope/internal/acl/store"
	tokenstore "tokenscope/internal/acl/store/token"
	jwttoken "tokenscope/internal/jwt_token"
	"tokenscope/internal/platform/config"
	"tokenscope/internal/platform/httpserver"
	"tokenscope/internal/platform/kafka"
	"tokenscope/internal/platform/logger"
	"tokenscope/internal/platform/metrics"
	"tokenscope/internal/platform/postgres"
	"tokenscope/internal/platform/redis"
	ratelimit "tokenscope/internal/ratelimit/middleware"
	"tokenscope/internal/ratelimit/store/bucket"
	audit "tokenscope/pkg/platform/audit"
	"tokenscope/pkg/platform/audit/publisher"
	kafkasink "tokenscope/pkg/platform/audit/publishers/kafka"
	auditmemory "tokenscope/pkg/platform/audit/store/memory"
	auditpostgres "tokenscope/pkg/platform/audit/store/postgres"
	"tokenscope/pkg/platform/middleware/auth"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and runs the HTTP server and purge loop until a
// signal arrives. Business logic lives in internal/acl.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DevMode {
		log.Warn("dev mode enabled: built-in admin credentials are accepted, do not expose this server")
	}

	if err := run(cfg, log); err != nil {
		log.Error("tokenscope exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	auditPublisher := newAuditPublisher(ctx, cfg, infra, log)
	defer auditPublisher.Close()

	svc := service.New(infra.tokens,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
	)

	if cfg.SeedFile != "" {
		seeds, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := svc.SeedTokens(ctx, seeds)
		if err != nil {
			return fmt.Errorf("seed tokens: %w", err)
		}
		log.InfoContext(ctx, "seed tokens imported", "created", n, "file", cfg.SeedFile)
	}

	// Left nil when no signing key is configured so bearer tokens are refused.
	var validator auth.JWTValidator
	if cfg.JWTSigningKey != "" {
		validator = jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	}
	requireAdmin := auth.RequireAdmin(cfg.AdminAPIToken, validator, jwttoken.ScopeACLAdmin, log)

	buckets := bucket.NewInMemoryBucketStore()
	limiter := ratelimit.New(buckets, log, ratelimit.WithDisabled(cfg.RateLimit.Disabled))
	verifyLimit := limiter.Limit("verify", cfg.RateLimit.VerifyLimit, cfg.RateLimit.VerifyWindow, verifyKey)

	srv := httpserver.New(cfg.Addr, newRouter(svc, requireAdmin, m, infra.health, log,
		handler.WithVerifyLimiter(verifyLimit)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tokenscope", "addr", cfg.Addr, "store", infra.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return svc.StartPurge(gctx, cfg.PurgeInterval)
	})
	g.Go(func() error {
		return sweepBuckets(gctx, buckets, cfg.RateLimit.VerifyWindow)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// verifyKey buckets verification attempts per client and token.
func verifyKey(r *http.Request) string {
	return ratelimit.ByClientIP(r) + ":" + chi.URLParam(r, "accessor_id")
}

// sweepBuckets drops idle rate limit buckets once per window.
func sweepBuckets(ctx context.Context, buckets *bucket.InMemoryBucketStore, window time.Duration) error {
	if window <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			buckets.Sweep()
		}
	}
}

// infrastructure holds the backing stores chosen from configuration.
type infrastructure struct {
	kind       string
	tokens     service.TokenStore
	auditStore audit.Store
	health     []healthCheck
	closers    []func()
}

func (i *infrastructure) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

// openInfra picks PostgreSQL when DATABASE_URL is set, else Redis when
// REDIS_URL is set, else the in-memory store.
func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{kind: "memory", auditStore: auditmemory.NewInMemoryStore()}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if db != nil {
		return withPostgres(ctx, infra, db)
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		infra.kind = "redis"
		infra.tokens = tokenstore.NewRedis(rc.Client)
		infra.health = append(infra.health, healthCheck{name: "redis", check: rc.Health})
		infra.closers = append(infra.closers, func() { _ = rc.Close() })
		return infra, nil
	}

	log.Warn("no DATABASE_URL or REDIS_URL configured; tokens are kept in memory")
	infra.tokens = tokenstore.NewInMemory()
	return infra, nil
}

func withPostgres(ctx context.Context, infra *infrastructure, db *sql.DB) (*infrastructure, error) {
	infra.closers = append(infra.closers, func() { _ = db.Close() })

	tokens := tokenstore.NewPostgres(db)
	if err := tokens.EnsureSchema(ctx); err != nil {
		infra.close()
		return nil, err
	}
	auditStore := auditpostgres.New(db)
	if err := auditStore.EnsureSchema(ctx); err != nil {
		infra.close()
		return nil, err
	}

	infra.kind = "postgres"
	infra.tokens = tokens
	infra.auditStore = auditStore
	infra.health = append(infra.health, healthCheck{name: "postgres", check: db.PingContext})
	return infra, nil
}

// newAuditPublisher stores audit events and, when brokers are configured,
// forwards them to Kafka. A Kafka outage at startup degrades to local-only
// auditing rather than blocking the service.
func newAuditPublisher(ctx context.Context, cfg config.Server, infra *infrastructure, log *slog.Logger) *publisher.Publisher {
	opts := []publisher.Option{
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Warn("kafka audit forwarding disabled", "error", err)
		} else {
			topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := producer.EnsureTopic(topicCtx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
				log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
			}
			cancel()
			infra.closers = append(infra.closers, producer.Close)
			opts = append(opts, publisher.WithSink(kafkasink.NewSink(producer, cfg.Kafka.AuditTopic)))
			log.Info("forwarding audit events to kafka", "topic", cfg.Kafka.AuditTopic)
		}
	}

	return publisher.NewPublisher(infra.auditStore, opts...)
}
