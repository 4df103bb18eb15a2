package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// VectorRetriever is the semantic channel: it embeds the query and ranks bookmarks by
// cosine similarity.
type VectorRetriever struct {
	embedder   ports.Embedder
	index      ports.VectorIndex
	dimensions int
}

// NewVectorRetriever builds the retriever. dimensions <= 0 disables the size check.
func NewVectorRetriever(embedder ports.Embedder, index ports.VectorIndex, dimensions int) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, index: index, dimensions: dimensions}
}

func (r *VectorRetriever) Search(
	ctx context.Context,
	userID string,
	text string,
	limit int,
	minimumScore float64,
	filter domain.SearchFilter,
) ([]domain.RetrievalResult, error) {
	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingFailure, "embed query", err)
	}
	if r.dimensions > 0 && len(vector) != r.dimensions {
		return nil, domain.WrapError(
			domain.ErrEmbeddingFailure,
			"embed query",
			fmt.Errorf("expected %d dimensions, got %d", r.dimensions, len(vector)),
		)
	}
	return r.SearchByVector(ctx, ports.VectorQuery{
		UserID: userID,
		Vector: vector,
		Filter: filter,
		Limit:  limit,
	}, minimumScore)
}

// SearchByVector ranks bookmarks against an existing embedding.
func (r *VectorRetriever) SearchByVector(
	ctx context.Context,
	query ports.VectorQuery,
	minimumScore float64,
) ([]domain.RetrievalResult, error) {
	matches, err := r.index.NearestByVector(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailure, "vector search", err)
	}

	ids := make([]string, 0, len(matches))
	scores := make([]float64, 0, len(matches))
	for _, match := range matches {
		// Zero-norm embeddings yield a NaN distance.
		if math.IsNaN(match.Distance) || math.IsInf(match.Distance, 0) {
			continue
		}
		score := SimilarityFromDistance(match.Distance)
		if score < minimumScore {
			continue
		}
		ids = append(ids, match.BookmarkID)
		scores = append(scores, score)
	}
	return assignRanks(trimCandidates(ids, query.Limit), scores), nil
}

// SimilarityFromDistance maps cosine distance in [0,2] to similarity in [0,1].
func SimilarityFromDistance(distance float64) float64 {
	score := 1 - distance/2
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
