package agent

import (
	"context"

	"github.com/standin-ai/standin/pkg/core/knowledge"
)

// CacheRetriever serves retrieval from the session's cognitive cache,
// embedding the query on demand. If the cache is still empty (warm start
// not finished), searches return no results rather than blocking.
type CacheRetriever struct {
	cache    *CognitiveCache
	embedder knowledge.Embedder
}

// NewCacheRetriever wraps a cache and an embedder as a retriever.
func NewCacheRetriever(cache *CognitiveCache, embedder knowledge.Embedder) *CacheRetriever {
	return &CacheRetriever{cache: cache, embedder: embedder}
}

// Search embeds the query and scores it against the cached items.
func (r *CacheRetriever) Search(ctx context.Context, query string, modes []string, threshold float64, limit int) ([]knowledge.Result, error) {
	if r.cache.Len() == 0 {
		return nil, nil
	}
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	scored := r.cache.Search(emb, modes, threshold, limit)
	out := make([]knowledge.Result, 0, len(scored))
	for _, s := range scored {
		out = append(out, knowledge.Result{
			ID:      s.ID,
			Content: s.Content,
			Score:   s.Score,
		})
	}
	return out, nil
}
