package usecase

import (
	"context"
	"sort"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

// hybridStrategy turns fused candidates into the final hybrid ordering. It may return
// bookmark records it already loaded so the orchestrator does not fetch them again.
type hybridStrategy interface {
	refine(ctx context.Context, userID, query string, fused []domain.FusedResult) ([]domain.RankedResult, map[string]domain.Bookmark, error)
}

// plainHybrid keeps fusion order after dropping candidates under the RRF floor.
type plainHybrid struct {
	minimumRRFScore float64
}

func (s plainHybrid) refine(_ context.Context, _ string, _ string, fused []domain.FusedResult) ([]domain.RankedResult, map[string]domain.Bookmark, error) {
	kept := filterByRRFScore(fused, s.minimumRRFScore)
	out := make([]domain.RankedResult, 0, len(kept))
	for _, candidate := range kept {
		out = append(out, domain.RankedResult{FusedResult: candidate})
	}
	return out, nil, nil
}

// rerankedHybrid sends the head of the fused list through the cross-encoder and orders
// the survivors by its score.
type rerankedHybrid struct {
	minimumRRFScore          float64
	candidateLimit           int
	minimumCrossEncoderScore float64
	reranker                 *CrossEncoderReranker
	bookmarks                ports.BookmarkReader
}

func (s rerankedHybrid) refine(ctx context.Context, userID, query string, fused []domain.FusedResult) ([]domain.RankedResult, map[string]domain.Bookmark, error) {
	head := trimCandidates(filterByRRFScore(fused, s.minimumRRFScore), s.candidateLimit)
	if len(head) == 0 {
		return []domain.RankedResult{}, nil, nil
	}

	ids := make([]string, 0, len(head))
	for _, candidate := range head {
		ids = append(ids, candidate.BookmarkID)
	}
	records, err := s.bookmarks.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrRetrievalFailure, "load rerank candidates", err)
	}

	// Candidates deleted since retrieval are dropped before scoring.
	present := make([]domain.FusedResult, 0, len(head))
	texts := make([]string, 0, len(head))
	for _, candidate := range head {
		record, ok := records[candidate.BookmarkID]
		if !ok {
			continue
		}
		present = append(present, candidate)
		texts = append(texts, record.TextForRerank())
	}

	scores, err := s.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, nil, err
	}

	out := make([]domain.RankedResult, 0, len(present))
	for i, candidate := range present {
		if scores[i] < s.minimumCrossEncoderScore {
			continue
		}
		score := scores[i]
		out = append(out, domain.RankedResult{FusedResult: candidate, CrossEncoderScore: &score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].CrossEncoderScore > *out[j].CrossEncoderScore
	})
	return out, records, nil
}
