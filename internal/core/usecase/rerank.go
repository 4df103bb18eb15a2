package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// CrossEncoderReranker rescores candidate texts against the query in one batch and
// returns scores aligned with the input order.
type CrossEncoderReranker struct {
	encoder ports.CrossEncoder
}

func NewCrossEncoderReranker(encoder ports.CrossEncoder) *CrossEncoderReranker {
	return &CrossEncoderReranker{encoder: encoder}
}

func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	tagged, err := r.encoder.Score(ctx, query, texts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRerankFailure, "cross-encoder score", err)
	}
	scores, err := alignRerankScores(tagged, len(texts))
	if err != nil {
		return nil, domain.WrapError(domain.ErrRerankFailure, "cross-encoder score", err)
	}
	return scores, nil
}

// alignRerankScores orders index-tagged scores by index. Every index in [0,n) must appear
// exactly once with a finite score in [0,1].
func alignRerankScores(tagged []ports.RerankScore, n int) ([]float64, error) {
	if len(tagged) != n {
		return nil, fmt.Errorf("expected %d scores, got %d", n, len(tagged))
	}
	sorted := make([]ports.RerankScore, len(tagged))
	copy(sorted, tagged)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := make([]float64, n)
	for i, s := range sorted {
		if s.Index != i {
			return nil, fmt.Errorf("missing or duplicate score index %d", i)
		}
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			return nil, fmt.Errorf("score %v at index %d outside [0,1]", s.Score, s.Index)
		}
		out[i] = s.Score
	}
	return out, nil
}
