package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
)

type searchStub struct {
	query  domain.SearchQuery
	userID string
}

func (s *searchStub) Search(_ context.Context, userID string, query domain.SearchQuery) (*domain.SearchResponse, error) {
	s.userID = userID
	s.query = query
	return &domain.SearchResponse{Query: query.Text, Results: []domain.SearchResultItem{}, Mode: domain.SearchModeHybrid}, nil
}

func (s *searchStub) FindSimilar(context.Context, string, string, int) (*domain.SearchResponse, error) {
	return &domain.SearchResponse{Query: "Similar to: x", Results: []domain.SearchResultItem{}, Mode: domain.SearchModeVector}, nil
}

type embedStub struct {
	ids []string
	err error
}

func (e *embedStub) EmbedByID(_ context.Context, id string) error {
	e.ids = append(e.ids, id)
	return e.err
}

func runRoot(t *testing.T, factory servicesFactory, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func stubFactory(search *searchStub, embed *embedStub) servicesFactory {
	return func(context.Context) (*services, error) {
		return &services{search: search, embedder: embed, close: func() {}}, nil
	}
}

func failingFactory(context.Context) (*services, error) {
	return nil, errors.New("factory must not be called")
}

func TestTranslatePrintsLexicalExpression(t *testing.T) {
	out, err := runRoot(t, failingFactory, "translate", "rust", "and", "async")
	if err != nil {
		t.Fatalf("translate error = %v", err)
	}
	if strings.TrimSpace(out) != "rust AND async" {
		t.Fatalf("unexpected translation %q", out)
	}
}

func TestSearchRequiresUserBeforeBootstrap(t *testing.T) {
	if _, err := runRoot(t, failingFactory, "search", "rust"); err == nil || !strings.Contains(err.Error(), "--user") {
		t.Fatalf("expected --user error, got %v", err)
	}
}

func TestSearchRejectsBadModeBeforeBootstrap(t *testing.T) {
	_, err := runRoot(t, failingFactory, "search", "rust", "--user", "u1", "--mode", "fuzzy")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSearchForwardsFlags(t *testing.T) {
	search := &searchStub{}
	out, err := runRoot(t, stubFactory(search, &embedStub{}),
		"search", "rust", "async", "--user", "u1", "--mode", "keyword", "-n", "5", "--from", "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if search.userID != "u1" || search.query.Text != "rust async" || search.query.Limit != 5 {
		t.Fatalf("unexpected forwarding: user=%q query=%+v", search.userID, search.query)
	}
	if search.query.Mode != domain.SearchModeKeyword || search.query.Filter.FromDate == nil {
		t.Fatalf("unexpected mode or filter: %+v", search.query)
	}

	var resp domain.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if resp.Query != "rust async" {
		t.Fatalf("unexpected response query %q", resp.Query)
	}
}

func TestEmbedStopsAtFirstFailure(t *testing.T) {
	embed := &embedStub{err: errors.New("boom")}
	_, err := runRoot(t, stubFactory(&searchStub{}, embed), "embed", "b1", "b2")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(embed.ids) != 1 || embed.ids[0] != "b1" {
		t.Fatalf("expected a single attempt on b1, got %v", embed.ids)
	}
}
