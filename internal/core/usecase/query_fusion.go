package usecase

import (
	"sort"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

const defaultRRFK = 60

// FuseRRF merges two ranked lists with Reciprocal Rank Fusion. Every identifier of the
// union gets Σ 1/(k+rank) over the channels that returned it. Ties keep first-seen order,
// vector list first.
func FuseRRF(vector, lexical []domain.RetrievalResult, k int) []domain.FusedResult {
	if k <= 0 {
		k = defaultRRFK
	}

	acc := make(map[string]*domain.FusedResult, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))
	entry := func(id string) *domain.FusedResult {
		if fused, ok := acc[id]; ok {
			return fused
		}
		fused := &domain.FusedResult{BookmarkID: id}
		acc[id] = fused
		order = append(order, id)
		return fused
	}

	for _, hit := range vector {
		fused := entry(hit.BookmarkID)
		if fused.VectorRank != nil {
			continue
		}
		rank, score := hit.Rank, hit.Score
		fused.VectorRank = &rank
		fused.VectorScore = &score
		fused.RRFScore += 1.0 / float64(k+rank)
	}
	for _, hit := range lexical {
		fused := entry(hit.BookmarkID)
		if fused.LexicalRank != nil {
			continue
		}
		rank, score := hit.Rank, hit.Score
		fused.LexicalRank = &rank
		fused.LexicalScore = &score
		fused.RRFScore += 1.0 / float64(k+rank)
	}

	out := make([]domain.FusedResult, 0, len(order))
	for _, id := range order {
		out = append(out, *acc[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RRFScore > out[j].RRFScore
	})
	return out
}

func filterByRRFScore(fused []domain.FusedResult, floor float64) []domain.FusedResult {
	out := make([]domain.FusedResult, 0, len(fused))
	for _, candidate := range fused {
		if candidate.RRFScore >= floor {
			out = append(out, candidate)
		}
	}
	return out
}

func trimCandidates[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}

// assignRanks turns an already ordered score list into dense 1-based ranks.
func assignRanks(ids []string, scores []float64) []domain.RetrievalResult {
	out := make([]domain.RetrievalResult, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.RetrievalResult{BookmarkID: id, Score: scores[i], Rank: i + 1})
	}
	return out
}
