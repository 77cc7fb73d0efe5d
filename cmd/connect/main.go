package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventpay/connect-go/internal/config"
	"github.com/eventpay/connect-go/internal/handler"
	"github.com/eventpay/connect-go/internal/infra/cache"
	"github.com/eventpay/connect-go/internal/infra/locker"
	"github.com/eventpay/connect-go/internal/infra/observability"
	"github.com/eventpay/connect-go/internal/infra/processor"
	"github.com/eventpay/connect-go/internal/infra/resilience"
	"github.com/eventpay/connect-go/internal/infra/store"
	"github.com/eventpay/connect-go/internal/port"
	"github.com/eventpay/connect-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("test_mode", cfg.TestMode),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("lock_backend", cfg.LockBackend),
		zap.Duration("lease_ttl", cfg.LeaseTTL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "connect-orchestrator")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache (ownerId -> processorAccountId mapping only) ---
	accountIDs := cache.New[string](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	storeClient := store.NewClient(
		httpClient,
		cfg.StoreURL,
		cfg.StoreAPIKey,
		cfg.StoreServiceKey,
		resilience.NewCircuitBreaker("document-store"),
		resilienceCfg,
		logger,
	)

	processorClient := processor.NewClient(
		httpClient,
		cfg.ProcessorAPIURL,
		cfg.ProcessorAPIKey,
		resilience.NewCircuitBreaker("processor-api"),
		resilienceCfg,
		logger,
	)

	// --- Owner lease ---
	var ownerLocker port.OwnerLocker
	switch cfg.LockBackend {
	case "store":
		ownerLocker = locker.NewStoreBacked(storeClient, cfg.LeaseTTL, cfg.LeaseTimeout, logger)
		logger.Info("owner lease backend: document store")
	default:
		ownerLocker = locker.NewInMemory(cfg.LeaseTimeout)
		logger.Info("owner lease backend: in-memory")
	}

	// --- Service ---
	connectSvc := service.NewConnectService(
		processorClient,
		storeClient,
		ownerLocker,
		accountIDs,
		metrics,
		logger,
		cfg.TestMode,
	)

	// --- Router ---
	router := handler.NewRouter(connectSvc, storeClient, metrics, cfg.JWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
