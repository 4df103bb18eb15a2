package ports

import (
	"context"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

// Embedder builds vectors for bookmark text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorMatch is a raw nearest-neighbor hit; Distance is cosine distance in [0,2].
type VectorMatch struct {
	BookmarkID string
	Distance   float64
}

// VectorQuery scopes a nearest-neighbor scan. ExcludeID drops one bookmark from the scan.
type VectorQuery struct {
	UserID    string
	Vector    []float32
	Filter    domain.SearchFilter
	Limit     int
	ExcludeID string
}

// VectorIndex performs similarity scans ordered by ascending distance.
type VectorIndex interface {
	NearestByVector(ctx context.Context, query VectorQuery) ([]VectorMatch, error)
}

// LexicalMatch is a raw BM25 hit.
type LexicalMatch struct {
	BookmarkID string
	Score      float64
}

// LexicalQuery carries an already translated lexical expression.
type LexicalQuery struct {
	UserID     string
	Expression string
	Filter     domain.SearchFilter
	Limit      int
}

// LexicalIndex executes BM25 queries ordered by descending relevance.
type LexicalIndex interface {
	SearchBM25(ctx context.Context, query LexicalQuery) ([]LexicalMatch, error)
}

// RerankScore is a cross-encoder score tagged with the index of the input text.
type RerankScore struct {
	Index int
	Score float64
}

// CrossEncoder scores (query, text) pairs in one batch. Scores may come back in any order.
type CrossEncoder interface {
	Score(ctx context.Context, query string, texts []string) ([]RerankScore, error)
}

// BookmarkReader hydrates bookmark records scoped to their owner.
type BookmarkReader interface {
	GetByID(ctx context.Context, bookmarkID string) (*domain.Bookmark, error)
	GetByIDs(ctx context.Context, userID string, ids []string) (map[string]domain.Bookmark, error)
	GetEmbedding(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error)
}

// EmbeddingWriter persists computed bookmark embeddings.
type EmbeddingWriter interface {
	SaveEmbedding(ctx context.Context, bookmarkID string, vector []float32) error
}

// MessageQueue publishes/consumes embedding refresh events.
type MessageQueue interface {
	PublishEmbeddingRequested(ctx context.Context, bookmarkID string) error
	SubscribeEmbeddingRequested(ctx context.Context, handler func(context.Context, string) error) error
}
