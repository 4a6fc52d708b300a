package agent

import (
	"sort"
	"sync"
)

// KnowledgeItem is one retrievable snippet with its embedding. Items are
// produced by ingestion and read-only inside the core.
type KnowledgeItem struct {
	ID        string
	Content   string
	Embedding []float32
	Source    string
	Modes     []string
}

// AllowedInMode reports whether the item may be retrieved for the given mode.
// An item with no mode tags is eligible everywhere.
func (k KnowledgeItem) AllowedInMode(modes []string) bool {
	if len(k.Modes) == 0 {
		return true
	}
	for _, m := range k.Modes {
		for _, want := range modes {
			if m == want {
				return true
			}
		}
	}
	return false
}

// ScoredItem is a cache search hit.
type ScoredItem struct {
	ID      string
	Content string
	Score   float64
}

// CognitiveCache is the session-scoped in-memory semantic store. It is
// populated once during warm start, frozen, and read-only for the rest of
// the session. Search degrades to empty results while the cache is empty,
// so a slow warm start never blocks the first turn.
type CognitiveCache struct {
	mu     sync.RWMutex
	items  []KnowledgeItem
	frozen bool
}

// NewCognitiveCache creates an empty, unfrozen cache.
func NewCognitiveCache() *CognitiveCache {
	return &CognitiveCache{}
}

// Add appends an item. Adds after Freeze are silently dropped; freezing is
// what makes mid-turn mutation races impossible.
func (c *CognitiveCache) Add(item KnowledgeItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return
	}
	c.items = append(c.items, item)
}

// Freeze marks the cache read-only. Idempotent.
func (c *CognitiveCache) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether warm start has completed.
func (c *CognitiveCache) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Len returns the number of cached items.
func (c *CognitiveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Search scores every cached item against the query embedding by dot product
// (embeddings are normalized upstream, so this is cosine similarity), keeps
// items at or above threshold that are eligible for one of the given modes,
// and returns the top hits descending by score.
func (c *CognitiveCache) Search(queryEmbedding []float32, modes []string, threshold float64, limit int) []ScoredItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.items) == 0 || len(queryEmbedding) == 0 {
		return nil
	}

	var hits []ScoredItem
	for _, item := range c.items {
		if !item.AllowedInMode(modes) {
			continue
		}
		score := dot(item.Embedding, queryEmbedding)
		if score >= threshold {
			hits = append(hits, ScoredItem{ID: item.ID, Content: item.Content, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
