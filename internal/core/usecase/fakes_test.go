package usecase

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := f.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vector)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vector, ok := f.vectors[text]; ok {
		return vector, nil
	}
	return []float32{0, 0, 1}, nil
}

// fakeVectorIndex computes exact cosine distance over in-memory bookmarks.
type fakeVectorIndex struct {
	mu        sync.Mutex
	bookmarks []domain.Bookmark
	err       error
	calls     int
	lastQuery ports.VectorQuery
	blockCtx  bool
}

func (f *fakeVectorIndex) NearestByVector(ctx context.Context, query ports.VectorQuery) ([]ports.VectorMatch, error) {
	f.mu.Lock()
	f.calls++
	f.lastQuery = query
	f.mu.Unlock()
	if f.blockCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}

	out := make([]ports.VectorMatch, 0, len(f.bookmarks))
	for _, b := range f.bookmarks {
		if b.UserID != query.UserID || !b.HasEmbedding() || b.ID == query.ExcludeID {
			continue
		}
		out = append(out, ports.VectorMatch{BookmarkID: b.ID, Distance: cosineDistance(query.Vector, b.Embedding)})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Distance < out[j-1].Distance; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type fakeLexicalIndex struct {
	mu        sync.Mutex
	matches   map[string][]ports.LexicalMatch
	err       error
	calls     int
	lastQuery ports.LexicalQuery
}

func (f *fakeLexicalIndex) SearchBM25(_ context.Context, query ports.LexicalQuery) ([]ports.LexicalMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.matches[query.Expression], nil
}

type fakeBookmarkReader struct {
	mu          sync.Mutex
	bookmarks   map[string]domain.Bookmark
	batchCalls  int
	err         error
	getByIDArgs []string
}

func newFakeBookmarkReader(bookmarks ...domain.Bookmark) *fakeBookmarkReader {
	reader := &fakeBookmarkReader{bookmarks: map[string]domain.Bookmark{}}
	for _, b := range bookmarks {
		reader.bookmarks[b.ID] = b
	}
	return reader
}

func (f *fakeBookmarkReader) GetByID(_ context.Context, bookmarkID string) (*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByIDArgs = append(f.getByIDArgs, bookmarkID)
	b, ok := f.bookmarks[bookmarkID]
	if !ok {
		return nil, domain.WrapError(domain.ErrBookmarkNotFound, "get bookmark", errors.New(bookmarkID))
	}
	return &b, nil
}

func (f *fakeBookmarkReader) GetByIDs(_ context.Context, userID string, ids []string) (map[string]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.Bookmark, len(ids))
	for _, id := range ids {
		if b, ok := f.bookmarks[id]; ok && b.UserID == userID {
			out[id] = b
		}
	}
	return out, nil
}

func (f *fakeBookmarkReader) GetEmbedding(_ context.Context, userID, bookmarkID string) (*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookmarks[bookmarkID]
	if !ok || b.UserID != userID {
		return nil, domain.WrapError(domain.ErrBookmarkNotFound, "get embedding", errors.New(bookmarkID))
	}
	return &b, nil
}

type fakeEmbeddingWriter struct {
	saved map[string][]float32
	err   error
}

func (f *fakeEmbeddingWriter) SaveEmbedding(_ context.Context, bookmarkID string, vector []float32) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string][]float32{}
	}
	f.saved[bookmarkID] = vector
	return nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishEmbeddingRequested(_ context.Context, bookmarkID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, bookmarkID)
	return nil
}

func (f *fakeQueue) SubscribeEmbeddingRequested(context.Context, func(context.Context, string) error) error {
	return nil
}
