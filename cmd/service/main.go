package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/coastalguard/coastal-monitor/internal/ai"
	"github.com/coastalguard/coastal-monitor/internal/cache"
	"github.com/coastalguard/coastal-monitor/internal/client"
	"github.com/coastalguard/coastal-monitor/internal/config"
	httphandler "github.com/coastalguard/coastal-monitor/internal/http"
	"github.com/coastalguard/coastal-monitor/internal/lifecycle"
	"github.com/coastalguard/coastal-monitor/internal/mock"
	"github.com/coastalguard/coastal-monitor/internal/notify"
	"github.com/coastalguard/coastal-monitor/internal/observability"
	"github.com/coastalguard/coastal-monitor/internal/registry"
	"github.com/coastalguard/coastal-monitor/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var provider client.WeatherClient
	if cfg.WeatherAPIKey != "" {
		weatherClient, err := client.NewOpenWeatherClientWithRetry(
			cfg.WeatherAPIKey,
			cfg.WeatherAPIURL,
			cfg.WeatherAPITimeout,
			cfg.RetryAttempts,
			cfg.RetryBaseDelay,
			cfg.RetryMaxDelay,
		)
		if err != nil {
			logger.Fatal("weather client", zap.Error(err))
		}
		provider = weatherClient
	} else {
		logger.Warn("no weather API key configured; serving simulated data")
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns, cfg.StaleCacheTTL)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	weatherService := service.NewCoastalService(provider, cacheSvc, mock.NewGenerator(), cfg.CacheTTL, cfg.StaleCacheTTL)

	analyzer := ai.NewAnalyzer(cfg.AIAPIKey, cfg.AIAPIURL, cfg.AIModel, cfg.AITimeout, logger)
	if cfg.AIAPIKey == "" {
		logger.Warn("no AI API key configured; analysis endpoint serves static fallback")
	}

	dispatcher := notify.NewDispatcher(
		[]notify.Notifier{
			notify.NewStubEmailNotifier(logger),
			notify.NewStubSMSNotifier(logger),
		},
		cfg.NotifyEmailRecipients,
		cfg.NotifySMSRecipients,
	)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedFallbackPct:  cfg.DegradedFallbackPct,
		StartTime:            time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(weatherService, analyzer, dispatcher, healthConfig, logger, cfg.CityMinLength, cfg.CityMaxLength)

	var scheduler *gocron.Scheduler
	if cfg.WarmCache {
		warmer := cache.NewWarmer(weatherService, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, registry.Names()); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()

		scheduler = gocron.NewScheduler(time.UTC)
		_, err := scheduler.Every(cfg.RefreshInterval).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := warmer.Warm(ctx, registry.Names()); err != nil {
				logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Error("schedule cache refresh", zap.Error(err))
		} else {
			scheduler.StartAsync()
			logger.Info("periodic cache refresh scheduled", zap.Duration("interval", cfg.RefreshInterval))
		}
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/dashboard", handler.GetDashboard).Methods("GET")
	apiRouter.HandleFunc("/city/{name}", handler.GetCity).Methods("GET")
	apiRouter.HandleFunc("/alerts", handler.GetAlerts).Methods("GET")
	apiRouter.HandleFunc("/cities", handler.GetCities).Methods("GET")
	apiRouter.HandleFunc("/ai-analysis", handler.GetAIAnalysis).Methods("GET")

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /api/test-communications endpoint exposed")
		apiRouter.HandleFunc("/test-communications", handler.PostTestCommunications).Methods("POST")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
