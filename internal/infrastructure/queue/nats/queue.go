package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/bookmark-search/internal/infrastructure/resilience"
)

const (
	workerQueueGroup = "embedding-workers"
	drainTimeout     = 30 * time.Second
)

// Queue carries embedding refresh requests between the API and the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

type embeddingRequested struct {
	BookmarkID  string    `json:"bookmark_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("bookmark-search"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishEmbeddingRequested(ctx context.Context, bookmarkID string) error {
	payload, err := encodeEmbeddingRequested(bookmarkID, time.Now().UTC())
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return resilience.WrapTemporaryIfNeeded("nats publish", err, classifyNATSError)
}

// SubscribeEmbeddingRequested blocks until ctx is done, then drains the subscription.
// Messages already delivered when shutdown starts are still processed, each bounded by
// drainTimeout.
func (q *Queue) SubscribeEmbeddingRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		q.deliver(ctx, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	deadline := time.Now().Add(drainTimeout)
	for sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if sub.IsValid() {
		q.logger.Warn("embedding_drain_timeout", "timeout_ms", drainTimeout.Milliseconds())
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) deliver(ctx context.Context, data []byte, handler func(context.Context, string) error) {
	bookmarkID, err := decodeEmbeddingRequested(data)
	if err != nil {
		q.logger.Error("embedding_event_invalid", "error", err)
		return
	}

	var handlerCtx context.Context
	var cancel context.CancelFunc
	if ctx.Err() != nil {
		q.logger.Info("embedding_event_draining", "bookmark_id", bookmarkID)
		handlerCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	} else {
		handlerCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if err := handler(handlerCtx, bookmarkID); err != nil {
		q.logger.Error("embedding_event_failed", "bookmark_id", bookmarkID, "error", err)
	}
}

func encodeEmbeddingRequested(bookmarkID string, at time.Time) ([]byte, error) {
	if strings.TrimSpace(bookmarkID) == "" {
		return nil, fmt.Errorf("bookmark id is required")
	}
	payload, err := json.Marshal(embeddingRequested{BookmarkID: bookmarkID, RequestedAt: at})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding event: %w", err)
	}
	return payload, nil
}

func decodeEmbeddingRequested(data []byte) (string, error) {
	var event embeddingRequested
	if err := json.Unmarshal(data, &event); err != nil {
		return "", fmt.Errorf("unmarshal embedding event: %w", err)
	}
	if strings.TrimSpace(event.BookmarkID) == "" {
		return "", fmt.Errorf("embedding event without bookmark id")
	}
	return event.BookmarkID, nil
}
