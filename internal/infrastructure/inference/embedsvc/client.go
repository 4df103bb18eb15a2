package embedsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/bookmark-search/internal/core/ports"
	"github.com/kirillkom/bookmark-search/internal/infrastructure/resilience"
)

// Client talks to the sentence-transformers sidecar that serves /embed and /rerank.
type Client struct {
	embedURL   string
	rerankURL  string
	dimensions int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	// RerankURL defaults to the embedding URL when empty.
	RerankURL  string
	Dimensions int
	Timeout    time.Duration
	Executor   *resilience.Executor
}

func New(embedURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rerankURL := strings.TrimSpace(options.RerankURL)
	if rerankURL == "" {
		rerankURL = embedURL
	}
	return &Client{
		embedURL:   strings.TrimRight(embedURL, "/"),
		rerankURL:  strings.TrimRight(rerankURL, "/"),
		dimensions: options.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings       [][]float32 `json:"embeddings"`
	Model            string      `json:"model"`
	Dimensions       int         `json:"dimensions"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

// Embed returns one vector per text. Any vector of the wrong size fails the whole batch.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var response embedResponse
	if err := e.client.postJSON(ctx, e.client.embedURL, "/embed", embedRequest{Texts: texts}, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(response.Embeddings), len(texts))
	}
	if want := e.client.dimensions; want > 0 {
		for i, vector := range response.Embeddings {
			if len(vector) != want {
				return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d (model %q)", i, len(vector), want, response.Model)
			}
		}
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResponse struct {
	Scores []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"scores"`
}

// CrossEncoder scores (query, text) pairs with the sidecar's cross-encoder model.
type CrossEncoder struct {
	client *Client
}

func NewCrossEncoder(client *Client) *CrossEncoder {
	return &CrossEncoder{client: client}
}

func (c *CrossEncoder) Score(ctx context.Context, query string, texts []string) ([]ports.RerankScore, error) {
	if len(texts) == 0 {
		return []ports.RerankScore{}, nil
	}

	var response rerankResponse
	if err := c.client.postJSON(ctx, c.client.rerankURL, "/rerank", rerankRequest{Query: query, Texts: texts}, &response, "rerank"); err != nil {
		return nil, err
	}

	out := make([]ports.RerankScore, 0, len(response.Scores))
	for _, s := range response.Scores {
		out = append(out, ports.RerankScore{Index: s.Index, Score: s.Score})
	}
	return out, nil
}
