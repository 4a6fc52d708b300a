package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/knowledge"
)

// ListKnowledge returns all knowledge items eligible for the given modes,
// used to warm-start the session cache. An item with no mode tags is
// returned for every mode.
func (s *Store) ListKnowledge(ctx context.Context, agentID string, modes []string) ([]agent.KnowledgeItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, content, embedding, source, modes
		 FROM knowledge_items
		 WHERE agent_id = $1 AND (modes = '{}' OR modes && $2)`,
		agentID, modes,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list knowledge: %w", err)
	}
	defer rows.Close()

	var items []agent.KnowledgeItem
	for rows.Next() {
		var (
			item agent.KnowledgeItem
			emb  pgvector.Vector
		)
		if err := rows.Scan(&item.ID, &item.Content, &emb, &item.Source, &item.Modes); err != nil {
			return nil, fmt.Errorf("store: scan knowledge: %w", err)
		}
		item.Embedding = emb.Slice()
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddKnowledge inserts one knowledge item and returns its id.
func (s *Store) AddKnowledge(ctx context.Context, agentID string, item agent.KnowledgeItem) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO knowledge_items (agent_id, content, embedding, source, modes)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		agentID, item.Content, pgvector.NewVector(item.Embedding), item.Source, item.Modes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: add knowledge: %w", err)
	}
	return id, nil
}

// DBRetriever serves retrieval straight from Postgres with a cosine
// similarity query. It backs sessions that skip the in-memory cache.
type DBRetriever struct {
	store    *Store
	agentID  string
	embedder knowledge.Embedder
}

// NewDBRetriever builds a database-backed retriever for one agent.
func (s *Store) NewDBRetriever(agentID string, embedder knowledge.Embedder) *DBRetriever {
	return &DBRetriever{store: s, agentID: agentID, embedder: embedder}
}

// Search embeds the query and runs a mode-filtered cosine search,
// descending by similarity, keeping hits at or above threshold.
func (r *DBRetriever) Search(ctx context.Context, query string, modes []string, threshold float64, limit int) ([]knowledge.Result, error) {
	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: embed query: %w", err)
	}

	rows, err := r.store.pool.Query(ctx,
		`SELECT id, content, 1 - (embedding <=> $1) AS score
		 FROM knowledge_items
		 WHERE agent_id = $2
		   AND (modes = '{}' OR modes && $3)
		   AND 1 - (embedding <=> $1) >= $4
		 ORDER BY embedding <=> $1
		 LIMIT $5`,
		pgvector.NewVector(emb), r.agentID, modes, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: search knowledge: %w", err)
	}
	defer rows.Close()

	var results []knowledge.Result
	for rows.Next() {
		var res knowledge.Result
		if err := rows.Scan(&res.ID, &res.Content, &res.Score); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
