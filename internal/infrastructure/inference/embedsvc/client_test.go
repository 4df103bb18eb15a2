package embedsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/resilience"
)

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
}

func TestEmbedSendsTextsAndChecksDimensions(t *testing.T) {
	var captured embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3],[0.4,0.5,0.6]],"model":"all-MiniLM-L6-v2","dimensions":3,"processing_time_ms":1.5}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, Options{Dimensions: 3}))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][2] != 0.6 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
	if strings.Join(captured.Texts, ",") != "a,b" {
		t.Fatalf("unexpected request texts %v", captured.Texts)
	}
}

func TestEmbedRejectsWrongDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]],"model":"m","dimensions":2}`))
	}))
	defer server.Close()

	_, err := NewEmbedder(New(server.URL, Options{Dimensions: 384})).EmbedQuery(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "expected 384") {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestEmbedRetriesServerErrorsAndMarksTemporary(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, Options{Executor: fastExecutor()})
	_, err := NewEmbedder(client).EmbedQuery(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if !strings.Contains(err.Error(), "model loading") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "texts must not be empty", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewEmbedder(New(server.URL, Options{Executor: fastExecutor()})).EmbedQuery(context.Background(), "q")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestCrossEncoderUsesRerankURL(t *testing.T) {
	var captured rerankRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"scores":[{"index":1,"score":0.9},{"index":0,"score":0.2}]}`))
	}))
	defer server.Close()

	encoder := NewCrossEncoder(New("http://embed.invalid", Options{RerankURL: server.URL + "/"}))
	scores, err := encoder.Score(context.Background(), "go tips", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 2 || scores[0].Index != 1 || scores[0].Score != 0.9 {
		t.Fatalf("unexpected scores %+v", scores)
	}
	if captured.Query != "go tips" || len(captured.Texts) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
}

func TestCrossEncoderEmptyInputSkipsRequest(t *testing.T) {
	encoder := NewCrossEncoder(New("http://embed.invalid", Options{}))
	scores, err := encoder.Score(context.Background(), "q", nil)
	if err != nil || len(scores) != 0 {
		t.Fatalf("Score() = %v, %v", scores, err)
	}
}

func TestRequestHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewEmbedder(New(server.URL, Options{Executor: fastExecutor()})).EmbedQuery(ctx, "q")
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}
