package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	koudenapp "github.com/kouden/backend/internal/application/kouden"
	"github.com/kouden/backend/internal/infrastructure/auth"
	"github.com/kouden/backend/internal/infrastructure/cache"
	"github.com/kouden/backend/internal/infrastructure/config"
	"github.com/kouden/backend/internal/infrastructure/event"
	"github.com/kouden/backend/internal/infrastructure/logger"
	"github.com/kouden/backend/internal/infrastructure/persistence"
	"github.com/kouden/backend/internal/infrastructure/scheduler"
	"github.com/kouden/backend/internal/infrastructure/telemetry"
	"github.com/kouden/backend/internal/interfaces/http/handler"
	"github.com/kouden/backend/internal/interfaces/http/middleware"
	"github.com/kouden/backend/internal/interfaces/http/router"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		panic("Failed to read .env files: " + err.Error())
	}
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers log through the bootstrap logger; the final logger
	// additionally feeds the OTLP log pipeline.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFrom(cfg.Telemetry), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	otelLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		otelLevel = zapcore.InfoLevel
	}
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: loggerProvider,
		Level:          otelLevel,
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting kouden backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Profiling, cfg.Telemetry.ServiceName), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs the summary cache, the invalidation channel and the token blacklist
	redisClient := cache.NewRedisClient(cfg.Redis)

	summaryCache, cacheCloser, err := cache.NewSummaryCache(cfg.Cache, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize summary cache", zap.Error(err))
	}

	var badgerGC *scheduler.PeriodicTask
	if store, ok := cacheCloser.(*cache.BadgerSummaryCache); ok && cfg.Cache.BadgerDir != "" {
		badgerGC, err = scheduler.NewPeriodicTask(scheduler.PeriodicConfig{
			Name:     "badger-value-log-gc",
			Interval: cfg.Cache.BadgerGCInterval,
			Timeout:  cfg.Cache.BadgerGCInterval / 2,
		}, store.RunGC, log)
		if err != nil {
			log.Fatal("Failed to configure badger gc", zap.Error(err))
		}
		if err := badgerGC.Start(ctx); err != nil {
			log.Fatal("Failed to start badger gc", zap.Error(err))
		}
	}

	viewInvalidator := cache.NewRedisViewInvalidator(redisClient,
		cache.WithInvalidatorChannel(cfg.Cache.InvalidationChannel),
		cache.WithInvalidatorLogger(log))
	invalidators := cache.Invalidators{viewInvalidator}

	subCtx, stopSubscription := context.WithCancel(ctx)
	if summaryCache != nil {
		evictor := cache.NewSummaryEvictor(summaryCache, log)
		invalidators = append(cache.Invalidators{evictor}, invalidators...)
		// other instances evict through the channel
		go func() {
			if err := viewInvalidator.Subscribe(subCtx, evictor.Evict); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("View invalidation subscription ended", zap.Error(err))
			}
		}()
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log), event.ReturnRecordEventTypes()...)
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	if metricsHandler, err := event.NewMetricsHandler(meter); err != nil {
		log.Warn("Event metrics disabled", zap.Error(err))
	} else {
		eventBus.Subscribe(metricsHandler, event.ReturnRecordEventTypes()...)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application
	recordRepo := persistence.NewGormReturnRecordRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)

	returnRecordService := koudenapp.NewReturnRecordService(recordRepo, ledgerRepo, ledgerRepo, ledgerRepo, invalidators)
	returnRecordService.SetEventPublisher(eventBus)
	if summaryCache != nil {
		returnRecordService.SetSummaryCache(summaryCache)
		log.Info("Summary cache enabled; ledger edits outside this service show after TTL or an invalidation",
			zap.String("backend", cfg.Cache.Backend),
			zap.Duration("ttl", cfg.Cache.SummaryTTL))
	}
	if serviceMetrics, err := telemetry.NewServiceMetrics(meter); err != nil {
		log.Warn("Service metrics disabled", zap.Error(err))
	} else {
		returnRecordService.SetMetrics(serviceMetrics)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.HTTPMetrics(meter, log),
		middleware.Profiling(profiler.IsEnabled()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
	jwtCfg.Logger = log

	systemHandler := handler.NewSystemHandler(version, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	routerOpts := []router.RouterOption{
		router.WithAPIMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtCfg), middleware.SpanEnricher()),
		router.WithHealthHandler(systemHandler.Health),
	}
	if cfg.HTTP.DocsEnabled {
		routerOpts = append(routerOpts, router.WithDocs())
		log.Info("API documentation served at /swagger/index.html")
	}
	router.NewRouter(engine, routerOpts...).Register(handler.NewReturnRecordHandler(returnRecordService)).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stopSubscription()
	shutdown(shutdownCtx, log, eventBus, viewInvalidator, badgerGC, cacheCloser, redisClient, db, profiler,
		tracerProvider, meterProvider, loggerProvider)

	log.Info("Server exited gracefully")
}

// shutdown releases resources in dependency order, logging every failure
func shutdown(
	ctx context.Context,
	log *zap.Logger,
	eventBus *event.InMemoryEventBus,
	viewInvalidator *cache.RedisViewInvalidator,
	badgerGC *scheduler.PeriodicTask,
	cacheCloser io.Closer,
	redisClient *redis.Client,
	db *persistence.Database,
	profiler *telemetry.Profiler,
	tracerProvider *telemetry.TracerProvider,
	meterProvider *telemetry.MeterProvider,
	loggerProvider *telemetry.LoggerProvider,
) {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"event bus", func() error { return eventBus.Stop(ctx) }},
		{"view invalidator", viewInvalidator.Close},
		{"badger gc", func() error {
			if badgerGC == nil {
				return nil
			}
			return badgerGC.Stop(ctx)
		}},
		{"summary cache", func() error {
			if cacheCloser == nil {
				return nil
			}
			return cacheCloser.Close()
		}},
		{"redis", redisClient.Close},
		{"database", db.Close},
		{"profiler", profiler.Stop},
		{"tracer provider", func() error { return tracerProvider.Shutdown(ctx) }},
		{"meter provider", func() error { return meterProvider.Shutdown(ctx) }},
		{"logger provider", func() error { return loggerProvider.Shutdown(ctx) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.Error("Error during shutdown", zap.String("component", step.name), zap.Error(err))
		}
	}
}
