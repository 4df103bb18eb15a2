package ports

import (
	"context"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

// SearchService is the inbound contract for hybrid bookmark search.
type SearchService interface {
	Search(ctx context.Context, userID string, query domain.SearchQuery) (*domain.SearchResponse, error)
	FindSimilar(ctx context.Context, userID, bookmarkID string, limit int) (*domain.SearchResponse, error)
}

// BookmarkEmbeddingProcessor is the inbound contract for asynchronous embedding refresh.
type BookmarkEmbeddingProcessor interface {
	EmbedByID(ctx context.Context, bookmarkID string) error
}

// BookmarkEmbeddingScheduler requests an embedding refresh on behalf of a user.
type BookmarkEmbeddingScheduler interface {
	Enqueue(ctx context.Context, userID, bookmarkID string) error
}
