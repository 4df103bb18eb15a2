package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

const testUser = "user-1"

func bookmarkWithVector(id string, vector ...float32) domain.Bookmark {
	return domain.NewBookmark(domain.BookmarkParams{
		ID:        id,
		UserID:    testUser,
		URL:       "https://example.com/" + id,
		Title:     "title " + id,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Embedding: vector,
	})
}

func TestVectorRetrieverIdenticalEmbeddingsScoreOne(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	index := &fakeVectorIndex{bookmarks: []domain.Bookmark{
		bookmarkWithVector("a", 1, 0, 0),
		bookmarkWithVector("b", 1, 0, 0),
		bookmarkWithVector("c", 0, 1, 0),
	}}

	hits, err := NewVectorRetriever(embedder, index, 3).Search(context.Background(), testUser, "query", 10, 0.9, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %+v", hits)
	}
	for i, hit := range hits {
		if hit.Score != 1.0 {
			t.Fatalf("expected score 1.0, got %v", hit.Score)
		}
		if hit.Rank != i+1 {
			t.Fatalf("expected dense rank %d, got %d", i+1, hit.Rank)
		}
	}
}

func TestVectorRetrieverMinimumScoreBoundaryIsInclusive(t *testing.T) {
	index := &stubVectorIndex{matches: []ports.VectorMatch{
		{BookmarkID: "at", Distance: 0.5},
		{BookmarkID: "below", Distance: 0.5000001},
	}}
	hits, err := NewVectorRetriever(&fakeEmbedder{}, index, 0).Search(context.Background(), testUser, "q", 10, 0.75, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].BookmarkID != "at" || hits[0].Score != 0.75 {
		t.Fatalf("expected only the boundary hit, got %+v", hits)
	}
}

func TestVectorRetrieverDropsNonFiniteDistances(t *testing.T) {
	index := &stubVectorIndex{matches: []ports.VectorMatch{
		{BookmarkID: "zero-vector", Distance: math.NaN()},
		{BookmarkID: "overflow", Distance: math.Inf(1)},
		{BookmarkID: "close", Distance: 0.1},
	}}
	for _, minimum := range []float64{0, 0.9} {
		hits, err := NewVectorRetriever(&fakeEmbedder{}, index, 0).Search(context.Background(), testUser, "q", 10, minimum, domain.SearchFilter{})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(hits) != 1 || hits[0].BookmarkID != "close" || hits[0].Rank != 1 {
			t.Fatalf("minimum %v: expected only the finite hit, got %+v", minimum, hits)
		}
	}
	if got := SimilarityFromDistance(math.NaN()); got != 0 {
		t.Fatalf("SimilarityFromDistance(NaN) = %v, want 0", got)
	}
}

func TestVectorRetrieverEmbeddingFailures(t *testing.T) {
	index := &fakeVectorIndex{}

	_, err := NewVectorRetriever(&fakeEmbedder{err: errors.New("down")}, index, 3).
		Search(context.Background(), testUser, "q", 10, 0, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected embedding failure, got %v", err)
	}

	_, err = NewVectorRetriever(&fakeEmbedder{}, index, 384).
		Search(context.Background(), testUser, "q", 10, 0, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected dimension mismatch to be an embedding failure, got %v", err)
	}
	if index.calls != 0 {
		t.Fatalf("expected no index call after embedding failure, got %d", index.calls)
	}
}

func TestVectorRetrieverIndexFailureIsRetrievalFailure(t *testing.T) {
	index := &fakeVectorIndex{err: errors.New("db down")}
	_, err := NewVectorRetriever(&fakeEmbedder{}, index, 0).Search(context.Background(), testUser, "q", 10, 0, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrRetrievalFailure) {
		t.Fatalf("expected retrieval failure, got %v", err)
	}
}

func TestLexicalRetrieverAssignsDenseRanks(t *testing.T) {
	index := &fakeLexicalIndex{matches: map[string][]ports.LexicalMatch{
		"golang OR tips": {{BookmarkID: "x", Score: 7.5}, {BookmarkID: "y", Score: 2.1}},
	}}
	filter := domain.SearchFilter{Domain: "go.dev"}

	hits, err := NewLexicalRetriever(index).Search(context.Background(), testUser, "golang tips", 10, filter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].Rank != 1 || hits[1].Rank != 2 || hits[0].Score != 7.5 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if index.lastQuery.UserID != testUser || index.lastQuery.Filter.Domain != "go.dev" || index.lastQuery.Limit != 10 {
		t.Fatalf("unexpected lexical query %+v", index.lastQuery)
	}
}

func TestLexicalRetrieverMatchAllSkipsIndex(t *testing.T) {
	index := &fakeLexicalIndex{}
	hits, err := NewLexicalRetriever(index).Search(context.Background(), testUser, "  and or ", 10, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", hits)
	}
	if index.calls != 0 {
		t.Fatalf("expected no index call, got %d", index.calls)
	}
}

func TestLexicalRetrieverIndexFailure(t *testing.T) {
	index := &fakeLexicalIndex{err: errors.New("syntax")}
	_, err := NewLexicalRetriever(index).Search(context.Background(), testUser, "golang", 10, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrRetrievalFailure) {
		t.Fatalf("expected retrieval failure, got %v", err)
	}
}

type stubVectorIndex struct {
	matches []ports.VectorMatch
}

func (s *stubVectorIndex) NearestByVector(context.Context, ports.VectorQuery) ([]ports.VectorMatch, error) {
	return s.matches, nil
}
