package agent

import "testing"

func item(id string, embedding []float32, modes ...string) KnowledgeItem {
	return KnowledgeItem{ID: id, Content: "content " + id, Embedding: embedding, Modes: modes}
}

func TestCognitiveCache_SearchRanksByScore(t *testing.T) {
	cache := NewCognitiveCache()
	cache.Add(item("low", []float32{0.8, 0}))
	cache.Add(item("high", []float32{1, 0}))
	cache.Freeze()

	hits := cache.Search([]float32{1, 0}, []string{"interview"}, 0.75, 3)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "high" {
		t.Errorf("top hit = %s, want high", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Error("hits not in descending score order")
	}
}

func TestCognitiveCache_ThresholdFilters(t *testing.T) {
	cache := NewCognitiveCache()
	cache.Add(item("weak", []float32{0.5, 0}))
	cache.Freeze()

	if hits := cache.Search([]float32{1, 0}, nil, 0.75, 3); len(hits) != 0 {
		t.Errorf("got %d hits below threshold, want 0", len(hits))
	}
}

func TestCognitiveCache_ModeFilter(t *testing.T) {
	cache := NewCognitiveCache()
	cache.Add(item("interview-only", []float32{1, 0}, "interview"))
	cache.Add(item("untagged", []float32{1, 0}))
	cache.Freeze()

	hits := cache.Search([]float32{1, 0}, []string{"standup", "general"}, 0.5, 5)
	if len(hits) != 1 || hits[0].ID != "untagged" {
		t.Errorf("mode filter failed, hits = %+v", hits)
	}
}

func TestCognitiveCache_FreezeRejectsInserts(t *testing.T) {
	cache := NewCognitiveCache()
	cache.Add(item("a", []float32{1}))
	cache.Freeze()
	cache.Add(item("b", []float32{1}))

	if cache.Len() != 1 {
		t.Errorf("len = %d after frozen insert, want 1", cache.Len())
	}
	if !cache.Frozen() {
		t.Error("cache should report frozen")
	}
}

func TestCognitiveCache_EmptySearchNeverBlocks(t *testing.T) {
	cache := NewCognitiveCache()
	if hits := cache.Search([]float32{1, 0}, nil, 0, 3); hits != nil {
		t.Errorf("empty cache returned %+v", hits)
	}
}
