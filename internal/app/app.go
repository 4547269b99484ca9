package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/auth"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/cache"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/config"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/event"
	handler "github.com/rajmohan-121/Ai-Tool-Finder/internal/handler/http"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/repository/postgres"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/seed"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/service"
	"github.com/rajmohan-121/Ai-Tool-Finder/migrations"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/database"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/health"
	pkgkafka "github.com/rajmohan-121/Ai-Tool-Finder/pkg/kafka"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/tracing"
)

// App wires together all dependencies and runs the tool finder service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis and Kafka are only contacted when enabled.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if cfg.AutoMigrate {
		if _, err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	// Optional Redis tool list cache. A literal nil keeps the service's
	// cache interface nil when disabled.
	var toolCache service.ToolCache
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		toolCache = cache.NewToolListCache(client, cfg.ToolCacheTTL)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Optional Kafka producer.
	var eventProducer *event.Producer
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(cfg.Kafka(), logger)
		eventProducer = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		eventProducer = event.NewProducer(nil, logger)
	}

	// Build the dependency graph.
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("create token service: %w", err)
	}
	adminService := service.NewAdminService(postgres.NewAdminRepository(pool), auth.NewHasher(cfg.BcryptCost), tokens, logger)
	toolService := service.NewToolService(postgres.NewToolRepository(pool), toolCache, eventProducer, logger)
	reviewService := service.NewReviewService(postgres.NewReviewRepository(pool), toolCache, eventProducer, logger)

	if cfg.BootstrapAdminEmail != "" {
		created, err := adminService.Bootstrap(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("bootstrap admin checked", slog.Bool("created", created))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redis != nil {
		client := a.redis
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(adminService, toolService, reviewService, tokens, healthHandler, logger, handler.RouterConfig{
		ServiceName:       config.ServiceName,
		CORS:              cfg.CORS(),
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		ToolListMaxAge:    cfg.ToolListMaxAge,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

// Connect opens the PostgreSQL pool and installs slow query logging.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, logger)
	}
	return pool, nil
}

// Migrate applies pending migrations and returns the names applied.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	applied, err := database.RunMigrations(ctx, pool, migrations.FS, logger)
	if err != nil {
		return applied, fmt.Errorf("run migrations: %w", err)
	}
	return applied, nil
}

// CreateAdmin creates an administrator unless the email is already taken.
// It reports whether an account was created.
func CreateAdmin(ctx context.Context, cfg *config.Config, logger *slog.Logger, email, password string) (bool, error) {
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		return false, err
	}
	defer pool.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	if err != nil {
		return false, fmt.Errorf("create token service: %w", err)
	}
	svc := service.NewAdminService(postgres.NewAdminRepository(pool), auth.NewHasher(cfg.BcryptCost), tokens, logger)
	return svc.Bootstrap(ctx, email, password)
}

// Seed loads the starter catalog through the tool service so cached listings
// are invalidated. Events are not published for seeded tools.
func Seed(ctx context.Context, cfg *config.Config, logger *slog.Logger) (int, error) {
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	var toolCache service.ToolCache
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return 0, fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		toolCache = cache.NewToolListCache(client, cfg.ToolCacheTTL)
	}

	tools := service.NewToolService(postgres.NewToolRepository(pool), toolCache, event.NewProducer(nil, logger), logger)
	return seed.Run(ctx, tools, seed.Catalog, logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans from drained requests)
// 3. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything but the HTTP server. Each resource is
// cleared once closed so repeated calls are harmless.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
