package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/bookmark-search/internal/adapters/http"
	"github.com/kirillkom/bookmark-search/internal/bootstrap"
	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/observability/logging"
	"github.com/kirillkom/bookmark-search/internal/observability/metrics"
)

func main() {
	cfg, err := config.LoadWithFile()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Observer: httpMetrics})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		cfg,
		app.SearchUC,
		app.EmbedUC,
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithBreakerStates(app.Executor.BreakerStates),
		httpadapter.WithLogger(logger),
	).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
