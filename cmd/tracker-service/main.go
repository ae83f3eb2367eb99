// tracker-service is the HTTP API server that submits guide-generation jobs
// to the remote guide service and tracks them via adaptive polling.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"guidetrack/internal/api"
	"guidetrack/internal/config"
	"guidetrack/internal/health"
	"guidetrack/internal/notify"
	"guidetrack/internal/observability"
	"guidetrack/internal/remote"
	"guidetrack/internal/track"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Local overrides for development; absence is fine.
	_ = godotenv.Load()

	cfg := config.LoadTrackerConfig()

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Lifecycle event notifier (optional)
	var sink track.EventSink
	var notifier *notify.Notifier
	if cfg.CallbackURL != "" {
		notifier = notify.New(notify.LoadConfigFromEnv(cfg.CallbackURL, cfg.CallbackSigningKey), metrics)
		sink = notifier
	}

	// Remote guide service client
	client := remote.NewHTTPClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey, cfg.RemoteTimeout)
	slog.Info("Using guide service", "baseUrl", cfg.RemoteBaseURL)

	// Create tracker
	tracker := track.New(client, track.Config{
		Tick:     cfg.Tick,
		Deadline: cfg.Deadline,
	}, metrics, sink)
	if cfg.Deadline > 0 {
		slog.Info("Job deadline enabled", "deadline", cfg.Deadline)
	}

	// Create health checker
	healthChecker := health.NewChecker(client)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Tracker:       tracker,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        cfg.APIKey,
	})

	if cfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second, // uploads can be slow
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + cfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", cfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy so load balancers drain traffic
	healthChecker.SetShuttingDown()
	if cfg.ShutdownDrainWait > 0 {
		slog.Info("Draining", "wait", cfg.ShutdownDrainWait)
		time.Sleep(cfg.ShutdownDrainWait)
	}

	// Phase 2: Stop accepting requests
	shutdown(10 * time.Second)

	// Phase 3: Stop the polling scheduler; in-flight poll outcomes are discarded
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tracker.Close(closeCtx); err != nil {
		slog.Error("Tracker shutdown error", "error", err)
	}

	// Phase 4: Drain queued lifecycle events
	if notifier != nil {
		if err := notifier.Close(closeCtx); err != nil {
			slog.Error("Notifier shutdown error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}
