package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

const testUserID = "6f1c2a8e-3b7d-4c1e-9a55-0d2f8e4b7c10"
const testBookmarkID = "0b9a6f3e-2c4d-4e8f-8a1b-5c6d7e8f9a0b"

type searchFake struct {
	lastUser    string
	lastQuery   domain.SearchQuery
	lastSimilar string
	lastLimit   int
	resp        *domain.SearchResponse
	err         error
}

func (f *searchFake) Search(_ context.Context, userID string, query domain.SearchQuery) (*domain.SearchResponse, error) {
	f.lastUser = userID
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	mode := query.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	return &domain.SearchResponse{Query: query.Text, Results: []domain.SearchResultItem{}, Mode: mode}, nil
}

func (f *searchFake) FindSimilar(_ context.Context, userID, bookmarkID string, limit int) (*domain.SearchResponse, error) {
	f.lastUser = userID
	f.lastSimilar = bookmarkID
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SearchResponse{Query: "Similar to: x", Results: []domain.SearchResultItem{}, Mode: domain.SearchModeVector}, nil
}

type schedulerFake struct {
	userID     string
	bookmarkID string
	err        error
}

func (f *schedulerFake) Enqueue(_ context.Context, userID, bookmarkID string) error {
	f.userID = userID
	f.bookmarkID = bookmarkID
	return f.err
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, &searchFake{}, &schedulerFake{}).Handler()
}
