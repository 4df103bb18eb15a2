package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
	"github.com/kirillkom/bookmark-search/internal/core/usecase"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/inference/embedsvc"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	SearchUC *usecase.SearchUseCase
	EmbedUC  *usecase.EmbedBookmarkUseCase
	Executor *resilience.Executor

	closeFn func()
}

type Options struct {
	Logger *slog.Logger
	// Observer receives retry and breaker events from every outbound call.
	Observer resilience.Observer
	// SkipQueue leaves NATS unconnected; Enqueue then fails.
	SkipQueue bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultMode, err := domain.ParseSearchMode(cfg.Search.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("search default mode: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBookmarkRepository(db)
	if err := repo.EnsureSchema(ctx, cfg.EmbeddingDimensions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	index := postgres.NewSearchIndex(db, cfg.Search.MinimumBM25Score)

	executorOpts := []resilience.Option{resilience.WithLogger(logger)}
	if opts.Observer != nil {
		executorOpts = append(executorOpts, resilience.WithObserver(opts.Observer))
	}
	retryCfg := resilienceConfig(cfg)
	if delay := retryCfg.MaxRetryDelay(); delay >= cfg.EmbeddingTimeout() {
		logger.Warn("retry_backoff_exceeds_embedding_timeout", "max_retry_delay_ms", delay.Milliseconds(), "embedding_timeout_ms", cfg.EmbeddingTimeout().Milliseconds())
	}
	executor := resilience.NewExecutor(retryCfg, executorOpts...)

	var queue *nats.Queue
	var publisher ports.MessageQueue
	if !opts.SkipQueue {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		publisher = queue
	}

	client := embedsvc.New(cfg.EmbeddingServiceURL, embedsvc.Options{
		RerankURL:  cfg.RerankServiceURL,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout(),
		Executor:   executor,
	})
	embedder := embedsvc.NewEmbedder(client)
	queryEmbedder, err := embedsvc.NewCachedEmbedder(embedder, cfg.EmbeddingCacheSize)
	if err != nil {
		closeAll(queue, db.Close)
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}

	searchUC := usecase.NewSearchUseCase(
		queryEmbedder,
		index,
		index,
		repo,
		embedsvc.NewCrossEncoder(client),
		cfg.EmbeddingDimensions,
		usecase.SearchConfig{
			DefaultMode:              defaultMode,
			RRFK:                     cfg.Search.RRFK,
			MaxVectorResults:         cfg.Search.MaxVectorResults,
			MaxKeywordResults:        cfg.Search.MaxKeywordResults,
			MinimumRRFScore:          cfg.Search.MinimumRRFScore,
			RerankEnabled:            cfg.Search.RerankEnabled,
			RerankCandidateLimit:     cfg.Search.RerankCandidateLimit,
			MinimumCrossEncoderScore: cfg.Search.MinimumCrossEncoderScore,
		},
		logger,
	)
	embedUC := usecase.NewEmbedBookmarkUseCase(repo, repo, embedder, publisher, cfg.EmbeddingDimensions, logger)

	return &App{
		Config:   cfg,
		Queue:    queue,
		SearchUC: searchUC,
		EmbedUC:  embedUC,
		Executor: executor,
		closeFn: func() {
			closeAll(queue, db.Close)
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func closeAll(queue *nats.Queue, closeDB func() error) {
	if queue != nil {
		queue.Close()
	}
	_ = closeDB()
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	out.RetryInitialBackoff = time.Duration(cfg.ResilienceRetryInitialBackoffMS) * time.Millisecond
	out.RetryMaxBackoff = time.Duration(cfg.ResilienceRetryMaxBackoffMS) * time.Millisecond
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	out.BreakerOpenTimeout = time.Duration(cfg.ResilienceBreakerOpenTimeoutMS) * time.Millisecond
	return out
}
