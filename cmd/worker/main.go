package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techmart/store-assistant/internal/bootstrap"
	"github.com/techmart/store-assistant/internal/config"
	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/observability/logging"
	"github.com/techmart/store-assistant/internal/observability/metrics"
)

const serviceName = "store-assistant-worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeQueryAnalytics(ctx, func(handlerCtx context.Context, record domain.QueryAnalytics) error {
		workerMetrics.StartRecord()
		workerMetrics.ObserveQueueLag(serviceName, time.Since(record.CreatedAt))

		started := time.Now()
		persistCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		saveErr := app.Analytics.SaveQueryAnalytics(persistCtx, record)
		workerMetrics.FinishRecord(serviceName, time.Since(started), saveErr)
		return saveErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
