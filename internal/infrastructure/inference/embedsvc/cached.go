package embedsvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

const DefaultQueryCacheSize = 512

// CachedEmbedder memoizes query embeddings. Batch embedding of bookmark text bypasses
// the cache because each bookmark is embedded once per change.
type CachedEmbedder struct {
	inner ports.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner ports.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.Embed(ctx, texts)
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vector, ok := c.cache.Get(key); ok {
		return vector, nil
	}

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vector)
	return vector, nil
}

func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
