package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/bookmark-search/internal/bootstrap"
	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/observability/logging"
	"github.com/kirillkom/bookmark-search/internal/observability/metrics"
)

const jobTimeout = 2 * time.Minute

func main() {
	cfg, err := config.LoadWithFile()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Observer: workerMetrics})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeEmbeddingRequested(ctx, func(handlerCtx context.Context, bookmarkID string) error {
		workerMetrics.StartJob()
		start := time.Now()
		if _, err := uuid.Parse(bookmarkID); err != nil {
			workerMetrics.FinishJob("worker", time.Since(start), "rejected")
			return domain.WrapError(domain.ErrInvalidInput, "embedding job", err)
		}

		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		err := app.EmbedUC.EmbedByID(jobCtx, bookmarkID)
		workerMetrics.FinishJob("worker", time.Since(start), jobStatus(err))
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func jobStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrBookmarkNotFound):
		return "not_found"
	default:
		return "error"
	}
}
