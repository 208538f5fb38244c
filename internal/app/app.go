package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/config"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/event"
	handler "github.com/telubhanuprasad/firestore-item-showcase/internal/handler/http"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/idempotency"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/service"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/database"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/health"
	pkgkafka "github.com/telubhanuprasad/firestore-item-showcase/pkg/kafka"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/middleware"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/tracing"
)

// ServiceName identifies the server in logs, traces and events.
const ServiceName = "item-showcase"

// Version is set at build time.
var Version = "dev"

// App wires together all dependencies and runs the showcase server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      repository.Store
	closeStore func()
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	tracerStop func(context.Context) error
	cancelBg   context.CancelFunc
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.release()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	tracerStop, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracerStop = tracerStop
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Document store, created once and shared.
	store, closeStore, err := OpenStore(ctx, cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	a.store, a.closeStore = store, closeStore

	healthHandler := health.NewHandler()
	healthHandler.Register("store", store.Ping)

	// Idempotency keys.
	var keys idempotency.Store
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return err
		}
		a.rdb = rdb
		logger.Info("connected to Redis",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		redisKeys := idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL())
		healthHandler.Register("redis", redisKeys.Ping)
		keys = redisKeys
	} else {
		keys = idempotency.NewMemoryStore(cfg.IdempotencyTTL())
	}

	// Review events.
	var publisher event.Publisher = event.Noop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		producer, err := event.NewProducer(a.producer, event.DefaultBreakerConfig(), reg, logger)
		if err != nil {
			return err
		}
		publisher = producer
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	metrics := service.NewMetrics(reg)
	itemService := service.NewItemService(store.Items(), metrics, logger)
	reviewService := service.NewReviewService(store.Reviews(), logger,
		service.WithIdempotency(keys),
		service.WithPublisher(publisher),
		service.WithMetrics(metrics),
	)

	bgCtx, cancelBg := context.WithCancel(context.Background())
	a.cancelBg = cancelBg

	router := handler.NewRouter(bgCtx, handler.Deps{
		Items:    itemService,
		Reviews:  reviewService,
		Health:   healthHandler,
		Metrics:  middleware.NewHTTPMetrics(reg),
		Gatherer: reg,
		Logger:   logger,
	}, handler.RouterConfig{
		CORS:                 middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		ReviewRateLimitRPS:   cfg.ReviewRateLimitRPS,
		ReviewRateLimitBurst: cfg.ReviewRateLimitBurst,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store_backend", a.cfg.StoreBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.release()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.release()
	a.logger.Info("application shutdown complete")
	return nil
}

// release closes every dependency that was opened, in reverse order.
func (a *App) release() {
	if a.cancelBg != nil {
		a.cancelBg()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.closeStore != nil {
		a.closeStore()
	}
	if a.tracerStop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerStop(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
