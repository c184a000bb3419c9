// Command server runs the cart synchronization engine behind the storefront UI API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/kvstore"
	"github.com/storefront/cartsync/internal/infrastructure/localstore"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
	"github.com/storefront/cartsync/internal/infrastructure/session"
	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
	"github.com/storefront/cartsync/internal/interfaces/http/handler"
	"github.com/storefront/cartsync/internal/interfaces/http/middleware"
	"github.com/storefront/cartsync/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cart sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	factory := kvstore.NewFactory(kvstore.FactoryConfig{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: kvstore.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Tracing: cfg.Telemetry.Enabled && cfg.Telemetry.StoreTraceEnabled,
	}, kvstore.WithLogger(log), kvstore.WithInMemoryFallback(cfg.Store.AllowMemoryFallback))

	kv, err := factory.CreateStore()
	if err != nil {
		log.Fatal("Failed to open cart store", zap.Error(err))
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("Error closing cart store", zap.Error(err))
		}
	}()

	// localstore owns the key namespace for every backend
	local := localstore.New(kv, localstore.WithKeyPrefix(cfg.Store.KeyPrefix), localstore.WithLogger(log))
	sessions := session.NewManager(local, log)

	gateway, err := remote.NewGateway(remote.Config{
		BaseURL:     cfg.Remote.BaseURL,
		Timeout:     cfg.Remote.Timeout,
		BearerToken: cfg.Remote.BearerToken,
		UserID:      cfg.Remote.UserID,
	}, remote.WithLogger(log), remote.WithTracerProvider(tp.Provider()))
	if err != nil {
		log.Fatal("Failed to create remote cart gateway", zap.Error(err))
	}

	metrics, err := telemetry.NewSyncMetrics(mp.Meter("github.com/storefront/cartsync"))
	if err != nil {
		log.Fatal("Failed to register sync metrics", zap.Error(err))
	}

	synchronizer := appcart.NewSynchronizer(gateway, local, sessions,
		appcart.WithLogger(log),
		appcart.WithCalculator(cart.NewCalculator(cfg.Pricing.TaxRate, cfg.Pricing.Shipping)),
		appcart.WithMetrics(metrics),
	)
	synchronizer.FetchCartItems(ctx)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        cfg.Telemetry.Enabled,
		TracerProvider: tp.Provider(),
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsCfg))

	degraded := func() bool {
		return factory.Degraded() || local.Degraded() || sessions.Degraded()
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewCartHandler(synchronizer)).
		Register(handler.NewSystemHandler(version, kv, degraded)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
