// Package knowledge defines the retrieval and embedding contracts the
// decision pipeline consumes. Implementations live in pkg/store (pgvector
// cold path) and pkg/core/agent (warm in-memory cache path).
package knowledge

import "context"

// Result is one ranked retrieval hit. Scores are similarity in [0,1],
// returned descending.
type Result struct {
	ID      string
	Content string
	Score   float64
}

// Retriever searches the knowledge base for snippets relevant to a query,
// restricted to the given modes.
type Retriever interface {
	Search(ctx context.Context, query string, modes []string, threshold float64, limit int) ([]Result, error)
}

// Embedder converts text to a normalized embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scores extracts the score column from results, preserving order.
func Scores(results []Result) []float64 {
	if len(results) == 0 {
		return nil
	}
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Score
	}
	return out
}
