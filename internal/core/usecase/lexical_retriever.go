package usecase

import (
	"context"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// LexicalRetriever is the BM25 channel.
type LexicalRetriever struct {
	index ports.LexicalIndex
}

func NewLexicalRetriever(index ports.LexicalIndex) *LexicalRetriever {
	return &LexicalRetriever{index: index}
}

// Search returns BM25 hits in relevance order. A query that translates to the match-all
// token contributes no lexical signal and returns an empty list without touching the index.
func (r *LexicalRetriever) Search(
	ctx context.Context,
	userID string,
	text string,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievalResult, error) {
	expression := TranslateLexicalQuery(text)
	if expression == MatchAllQuery {
		return []domain.RetrievalResult{}, nil
	}

	matches, err := r.index.SearchBM25(ctx, ports.LexicalQuery{
		UserID:     userID,
		Expression: expression,
		Filter:     filter,
		Limit:      limit,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailure, "lexical search", err)
	}

	ids := make([]string, 0, len(matches))
	scores := make([]float64, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.BookmarkID)
		scores = append(scores, match.Score)
	}
	return assignRanks(trimCandidates(ids, limit), scores), nil
}
