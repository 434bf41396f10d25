// cmd/session-api/main.go
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

	"autoease/internal/api"
	"autoease/internal/app"
	"autoease/internal/common/config"
	"autoease/internal/common/events"
	"autoease/internal/common/logger"
	"autoease/internal/common/observability"
	"autoease/internal/session"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "session-api"})

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs := observability.New("session-api")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("runtime init failed", zap.Error(err))
	}
	defer rt.Close()

	if err := rt.Refresher.Start(cfg.Catalog.RefreshSchedule); err != nil {
		zapLog.Fatal("invalid catalog refresh schedule", zap.Error(err))
	}

	publisher := events.NewPublisherFromConfig(cfg.Kafka, log)
	defer publisher.Close()

	store := session.NewStore(
		rt.Catalogs,
		rt.Engine,
		rt.Generator,
		session.Options{CallTimeout: config.GetDuration(cfg.Session.CallTimeout)},
		time.Duration(cfg.Session.TTL)*time.Second,
		log,
	)
	go store.RunJanitor(ctx, janitorInterval)

	handler := api.NewSessionHandler(store, rt.Catalogs, rt.Recommender, publisher, log)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewRouter(cfg.Server, handler, obs, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("session API listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("session API failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Session API stopped gracefully")
}
