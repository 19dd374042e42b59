package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps an Embedder with a fixed-capacity LRU cache keyed by
// exact input text. Safe for concurrent use; the LRU handles its own
// locking. A bounded cache keeps long-running processes from growing
// without limit as queries accumulate.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with an LRU of the given capacity.
func NewCached(inner Embedder, capacity int) (*Cached, error) {
	cache, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vec)
	return vec, nil
}

// Len reports how many embeddings are currently cached.
func (c *Cached) Len() int {
	return c.cache.Len()
}
