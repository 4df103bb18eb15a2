package domain

import (
	"testing"
	"time"
)

func TestBookmarkTextForEmbeddingSkipsBlankParts(t *testing.T) {
	b := NewBookmark(BookmarkParams{Title: "Go blog", Description: "  ", Notes: "generics"})
	if got := b.TextForEmbedding(); got != "Go blog generics" {
		t.Fatalf("TextForEmbedding() = %q", got)
	}
}

func TestBookmarkWithEmbeddingReturnsCopy(t *testing.T) {
	original := NewBookmark(BookmarkParams{ID: "b1", Title: "t"})
	vector := []float32{1, 2}
	updated := original.WithEmbedding(vector, time.Unix(10, 0))
	vector[0] = 9

	if original.HasEmbedding() {
		t.Fatalf("original must stay without embedding")
	}
	if updated.Embedding[0] != 1 || updated.UpdatedAt == nil {
		t.Fatalf("unexpected updated bookmark %+v", updated)
	}
}

func TestParseSearchMode(t *testing.T) {
	mode, err := ParseSearchMode(" Hybrid ")
	if err != nil || mode != SearchModeHybrid {
		t.Fatalf("ParseSearchMode() = %q, %v", mode, err)
	}
	if mode, err := ParseSearchMode(""); err != nil || mode != "" {
		t.Fatalf("expected empty mode for empty input, got %q, %v", mode, err)
	}
	if _, err := ParseSearchMode("semantic"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestErrorCategory(t *testing.T) {
	nested := WrapError(ErrRerankFailure, "op", WrapError(ErrTemporary, "http", errTest))
	cases := []struct {
		err  error
		want string
	}{
		{err: WrapError(ErrInvalidInput, "op", errTest), want: "validation_failure"},
		{err: WrapError(ErrBookmarkNotFound, "op", errTest), want: "not_found"},
		{err: nested, want: "rerank_failure"},
		{err: WrapError(ErrTemporary, "op", errTest), want: "temporary_failure"},
		{err: errTest, want: "internal"},
	}
	for _, tc := range cases {
		if got := ErrorCategory(tc.err); got != tc.want {
			t.Fatalf("ErrorCategory(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")
