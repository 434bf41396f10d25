// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autoease/internal/app"
	"autoease/internal/common/camunda"
	"autoease/internal/common/config"
	"autoease/internal/common/logger"
	"autoease/internal/common/observability"

	rs "autoease/internal/workers/ai-assist/recommend-services"
	ga "autoease/internal/workers/stations/generate-availability"
	rk "autoease/internal/workers/stations/rank-stations"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	var rt *app.Runtime
	err = retryWithBackoff(func() error {
		var err error
		rt, err = app.Build(ctx, cfg, log)
		return err
	}, 15, 2*time.Second, zapLog, "Runtime initialization")
	if err != nil {
		zapLog.Fatal("runtime init failed after retries", zap.Error(err))
	}
	defer rt.Close()

	if err := rt.Refresher.Start(cfg.Catalog.RefreshSchedule); err != nil {
		zapLog.Fatal("invalid catalog refresh schedule", zap.Error(err))
	}
	zapLog.Info("Domain components ready",
		zap.String("catalogSource", cfg.Catalog.Source),
		zap.Int("stations", rt.Catalogs.Current().Len()),
		zap.String("scorer", rt.Engine.ScorerName()),
	)

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	workers := camunda.NewWorkerSet(zeebe.Zeebe(), obs, log)

	if taskType := rk.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := rk.NewHandler(&rk.Config{
			Timeout:  config.GetDuration(wcfg.Timeout),
			MaxItems: rk.LoadConfig().MaxItems,
		}, rt.Engine, rt.Catalogs, log)
		workers.Register(taskType, wcfg, handler.Handle)
	}

	if taskType := ga.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := ga.NewHandler(&ga.Config{
			Timeout: config.GetDuration(wcfg.Timeout),
		}, rt.Generator, rt.Catalogs, log)
		workers.Register(taskType, wcfg, handler.Handle)
	}

	if taskType := rs.TaskType; config.IsWorkerEnabled(cfg, taskType) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := rs.NewHandler(&rs.Config{
			Timeout:         config.GetDuration(wcfg.Timeout),
			FallbackOnError: rs.LoadConfig().FallbackOnError,
		}, rt.Recommender, log)
		workers.Register(taskType, wcfg, handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Int("count", workers.Len()))

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	ready.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() || rt.Catalogs.Current().Len() == 0 || zeebe.HealthCheck(r.Context()) != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:              cfg.Server.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)

	workers.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down health server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
