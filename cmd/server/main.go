package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	appstore "github.com/paybridge/backend/internal/application/storefront"
	"github.com/paybridge/backend/internal/infrastructure/cache"
	"github.com/paybridge/backend/internal/infrastructure/config"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/payment"
	"github.com/paybridge/backend/internal/infrastructure/swell"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
	"github.com/paybridge/backend/internal/interfaces/http/handler"
	"github.com/paybridge/backend/internal/interfaces/http/middleware"
	"github.com/paybridge/backend/internal/interfaces/http/router"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const maxRequestBodyBytes = 1 << 20

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PayBridge backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
		zap.String("store", cfg.Swell.Addr()),
		logger.Secret("swell_secret_key", cfg.Swell.SecretKey),
	)

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	var meter metric.Meter
	var gatewayOpts []swell.Option
	if mp.IsEnabled() {
		meter = mp.Meter(cfg.App.Name)
		storeMetrics, err := telemetry.NewStoreMetrics(meter)
		if err != nil {
			log.Fatal("Failed to create remote store metrics", zap.Error(err))
		}
		gatewayOpts = append(gatewayOpts, swell.WithMetrics(storeMetrics))
	}

	// Remote store
	gateway, err := swell.NewGateway(&cfg.Swell, log, gatewayOpts...)
	if err != nil {
		log.Fatal("Failed to create remote store gateway", zap.Error(err))
	}

	// Product cache: Redis when configured and reachable, in-memory otherwise
	docCache := cache.NewDocumentCache(ctx, cfg.Redis, log)
	defer func() {
		if err := docCache.Close(); err != nil {
			log.Error("Error closing document cache", zap.Error(err))
		}
	}()

	// Application services
	accountService := appstore.NewAccountService(gateway, nil, log)
	orderService := appstore.NewOrderService(gateway, log)
	subscriptionService := appstore.NewSubscriptionService(gateway, log)
	productService := appstore.NewProductService(gateway, docCache, cfg.Cache.ProductTTL, log)
	verificationService := appstore.NewVerificationService(accountService)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(router.EngineOptions{
		ServiceName:    cfg.App.Name,
		TracingEnabled: tp.IsEnabled(),
		Meter:          meter,
		CORS:           middleware.CORSFromConfig(cfg.HTTP),
		MaxBodyBytes:   maxRequestBodyBytes,
	}, log)

	handler.NewSystemHandler(cfg.App.Name, Version, gateway).RegisterRoutes(engine)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		handler.NewAccountHandler(accountService),
		handler.NewOrderHandler(orderService),
		handler.NewSubscriptionHandler(subscriptionService),
		handler.NewProductHandler(productService),
		handler.NewVerificationHandler(verificationService),
	)

	if cfg.Stripe.SecretKey != "" {
		stripeAdapter, err := payment.NewStripeAdapter(cfg.Stripe, log)
		if err != nil {
			log.Fatal("Failed to create Stripe adapter", zap.Error(err))
		}
		r.Register(handler.NewStripeHandler(stripeAdapter))
	} else {
		log.Warn("Stripe secret key not configured, payment endpoint disabled")
	}

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
