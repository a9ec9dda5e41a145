package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/config"
	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/handler"
	"github.com/vbarros/obraprime-crm-go/internal/infra/cache"
	"github.com/vbarros/obraprime-crm-go/internal/infra/client"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/infra/resilience"
	"github.com/vbarros/obraprime-crm-go/internal/infra/snapshot"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("data_dir", cfg.DataDir),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "obraprime-crm")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	cepCache := cache.New[*domain.AddressResult](cfg.CacheTTL)
	cnpjCache := cache.New[*domain.RegistryLookup](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- External clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	viaCEP := client.NewViaCEPClient(httpClient, cfg.ViaCEPURL, cb, resilienceCfg)
	brasilAPI := client.NewBrasilAPIClient(httpClient, cfg.BrasilAPIURL, cb, resilienceCfg)
	nominatim := client.NewNominatimClient(httpClient, cfg.NominatimURL, cfg.NominatimUserAgent, cb, resilienceCfg)
	searchAgent := client.NewSearchAgentClient(httpClient, cfg.SearchAgentURL, cb, resilienceCfg)

	// --- Snapshot store ---
	store, err := snapshot.NewFileStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	logger.Info("snapshot store ready", zap.String("data_dir", cfg.DataDir))

	// --- Services ---
	clientsSvc := service.NewClientsService(store, metrics, logger)
	lookupSvc := service.NewLookupService(viaCEP, brasilAPI, nominatim, searchAgent, cepCache, cnpjCache, metrics, logger)
	authSvc := service.NewAuthService(store, store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.AdminEmails, logger)
	adminSvc := service.NewAdminService(store, store, store, cfg.PrimaryAdmin, logger)

	// --- Router ---
	router := handler.NewRouter(clientsSvc, lookupSvc, authSvc, adminSvc, metrics, logger)

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
