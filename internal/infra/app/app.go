package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/audit"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/database"
	kafkainfra "github.com/Aro-geo/focusmate-app-sub002/internal/infra/kafka"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/ratelimit"
	redisinfra "github.com/Aro-geo/focusmate-app-sub002/internal/infra/redis"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/reporting"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/security"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/telemetry"
	elasticrepo "github.com/Aro-geo/focusmate-app-sub002/internal/repository/elastic"
	postgresrepo "github.com/Aro-geo/focusmate-app-sub002/internal/repository/postgres"
	redisrepo "github.com/Aro-geo/focusmate-app-sub002/internal/repository/redis"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository/sqlstore"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/middleware"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/routes"
	"github.com/Aro-geo/focusmate-app-sub002/internal/usecase"
	"github.com/Aro-geo/focusmate-app-sub002/internal/validation"
)

// Application owns the HTTP server and every backend connection.
type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	closers []func(context.Context) error
}

type stores struct {
	users    port.UserRepository
	sessions port.SessionRepository
	attempts port.AuditSink
	check    routes.Checker
}

// New connects every configured backend and assembles the auth service.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	if err := a.build(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authMetrics, err := telemetry.NewAuthMetrics(telemetry.AuthMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init auth metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	checks := []routes.Checker{st.check}

	limiter, redisCheck, err := a.openLimiter(ctx)
	if err != nil {
		return err
	}
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}

	events, eventSink := a.openEvents()

	sinks := []audit.Sink{
		{Name: cfg.Store.Driver, Sink: st.attempts},
		{Name: "kafka", Sink: eventSink},
	}
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := elasticrepo.NewClient(ctx, cfg.Elastic)
		if err != nil {
			log.Warn("elasticsearch unavailable, audit index disabled", zap.Error(err))
		} else {
			sinks = append(sinks, audit.Sink{Name: "elasticsearch", Sink: elasticrepo.NewLoginAttemptIndex(esClient, cfg.Elastic.AuditIndex)})
		}
	}
	auditSink := audit.NewFanout(log, sinks...)

	hasher, err := security.NewPasswordHasher(security.HasherConfig{
		Algorithm:   cfg.Security.Hasher,
		BcryptCost:  cfg.Security.BcryptCost,
		Concurrency: cfg.Security.HashConcurrency,
		Argon2: security.Argon2Config{
			Memory:      cfg.Security.Argon2.Memory,
			Iterations:  cfg.Security.Argon2.Iterations,
			Parallelism: cfg.Security.Argon2.Parallelism,
			SaltLength:  cfg.Security.Argon2.SaltLength,
			KeyLength:   cfg.Security.Argon2.KeyLength,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}

	tokens, err := security.NewTokenService(security.TokenSettings{
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RememberMeTTL: cfg.JWT.RememberMeTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	authService, err := usecase.NewAuthService(cfg, usecase.AuthDependencies{
		Users:    st.users,
		Sessions: usecase.NewSessionManager(st.sessions, events, authMetrics, cfg.Sessions.Keep, log),
		Guard:    usecase.NewAccountGuard(st.users, cfg.Lockout.Threshold, cfg.Lockout.Duration),
		Hasher:   hasher,
		Tokens:   tokens,
		Limiter:  limiter,
		Domains:  validation.NewDomainPolicy(cfg.Security.DeniedDomains...),
		Events:   events,
		Audit:    auditSink,
		Metrics:  authMetrics,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("init auth service: %w", err)
	}

	a.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Auth:        authService,
		HTTPMetrics: httpMetrics,
		Gatherer:    registry,
		Checks:      checks,
	})
	return nil
}

func (a *Application) openStores(ctx context.Context) (stores, error) {
	cfg, log := a.cfg, a.logger

	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath, log)
		if err != nil {
			return stores{}, fmt.Errorf("init sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return stores{}, fmt.Errorf("sqlite handle: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })

		if err := sqlstore.AutoMigrate(db); err != nil {
			return stores{}, fmt.Errorf("migrate sqlite: %w", err)
		}
		repos := sqlstore.NewRepositories(db)
		return stores{
			users:    repos.Users,
			sessions: repos.Sessions,
			attempts: repos.LoginAttempts,
			check:    routes.Checker{Name: "sqlite", Check: sqlDB.PingContext},
		}, nil

	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return stores{}, fmt.Errorf("init postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })

		repos := postgresrepo.NewRepositories(pool)
		return stores{
			users:    repos.Users,
			sessions: repos.Sessions,
			attempts: repos.LoginAttempts,
			check:    routes.Checker{Name: "postgres", Check: pool.Ping},
		}, nil
	}
}

func (a *Application) openLimiter(ctx context.Context) (port.RateLimiter, *routes.Checker, error) {
	cfg, log := a.cfg, a.logger

	if cfg.RateLimit.Backend != config.RateLimitBackendRedis {
		return ratelimit.New(ratelimit.WithGCThreshold(cfg.RateLimit.GCThreshold)), nil, nil
	}

	client, err := redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	repo := redisrepo.NewRateLimitRepository(client.Client(), redisrepo.FixedWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
	})
	return repo, &routes.Checker{Name: "redis", Check: client.HealthCheck}, nil
}

// openEvents returns the event publisher and, when Kafka is live, the audit sink it doubles as.
func (a *Application) openEvents() (port.EventPublisher, port.AuditSink) {
	cfg, log := a.cfg, a.logger

	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log), nil
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log), nil
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })

	publisher := kafkainfra.NewEventPublisher(producer, cfg.App, log)
	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return publisher, publisher
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if err := a.close(context.Background()); err != nil {
			a.logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("store", a.cfg.Store.Driver),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		reporting.CaptureError(err, map[string]string{"op": "serve"})
		return err
	}
}

// close releases backends in reverse order of acquisition.
func (a *Application) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
