package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	inspectionapp "github.com/agrocert/backend/internal/application/inspection"
	"github.com/agrocert/backend/internal/infrastructure/auth"
	"github.com/agrocert/backend/internal/infrastructure/cache"
	"github.com/agrocert/backend/internal/infrastructure/config"
	"github.com/agrocert/backend/internal/infrastructure/logger"
	"github.com/agrocert/backend/internal/infrastructure/persistence"
	"github.com/agrocert/backend/internal/infrastructure/telemetry"
	"github.com/agrocert/backend/internal/interfaces/http/handler"
	"github.com/agrocert/backend/internal/interfaces/http/middleware"
	"github.com/agrocert/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The log exporter comes first so that the zap logger can tee into it
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg, loggerProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		_ = loggerProvider.Shutdown(context.Background(), log)
	}()

	log.Info("Starting AgroCert inspection backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		_ = tracerProvider.Shutdown(context.Background())
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		_ = meterProvider.Shutdown(context.Background())
	}()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		_ = profiler.Stop()
	}()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories share one executor so that every statement is logged and
	// classified the same way
	qe := persistence.NewQueryExecutor(db.DB, log)
	fichaRepo := persistence.NewGormFichaRepository(qe, log)
	producerRepo := persistence.NewGormProducerRepository(qe)
	plotRepo := persistence.NewGormPlotRepository(qe)
	gestionRepo := persistence.NewGormGestionRepository(qe)
	synchronizer := persistence.NewGormFichaSynchronizer(qe, log)

	draftStore, err := cache.NewDraftStore(ctx, cfg.Draft, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize draft store", zap.Error(err))
	}
	defer func() {
		if err := draftStore.Close(); err != nil {
			log.Error("Error closing draft store", zap.Error(err))
		}
	}()

	inspectionMetrics, err := telemetry.NewInspectionMetrics(meterProvider.Meter("agrocert.inspection"))
	if err != nil {
		log.Warn("Inspection metrics unavailable", zap.Error(err))
	}

	fichaService := inspectionapp.NewFichaService(fichaRepo, producerRepo, plotRepo, gestionRepo, synchronizer,
		inspectionapp.ServiceConfig{
			SurfaceTolerance: decimal.NewFromFloat(cfg.Inspection.SurfaceTolerance),
			SyncTimeout:      cfg.Inspection.SyncTimeout,
			DraftTTL:         cfg.Draft.TTL,
		})
	fichaService.SetDraftStore(draftStore)
	fichaService.SetMetrics(inspectionMetrics)
	fichaService.SetLogger(log.Named("inspection"))

	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before the span and the
	// request log are created, and recovery wraps everything after it.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("http.server")))
	engine.Use(middleware.Profiling("/health"))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(db, version)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			SkipPaths:  []string{"/api/v1/health", "/api/v1/system/info"},
			Logger:     log,
		}),
		middleware.TracingAttributeInjector(),
	)

	inspectionRoutes := router.NewDomainGroup("inspection", "").Mount(
		handler.NewFichaHandler(fichaService),
		handler.NewDraftHandler(fichaService),
	)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(inspectionRoutes).Register(systemRoutes)
	r.Setup()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
