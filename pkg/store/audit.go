package store

import (
	"context"
	"fmt"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/live"
)

// SaveTranscript appends one transcript line. Callers treat failures as
// best-effort.
func (s *Store) SaveTranscript(ctx context.Context, line live.TranscriptLine) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (session_id, role, text, spoken_at)
		 VALUES ($1, $2, $3, $4)`,
		line.SessionID, line.Role, line.Text, line.At,
	)
	if err != nil {
		return fmt.Errorf("store: save transcript: %w", err)
	}
	return nil
}

// SaveTurn appends one turn audit record.
func (s *Store) SaveTurn(ctx context.Context, sessionID string, turn agent.ConversationTurn) error {
	sources := turn.RetrievedSources
	if sources == nil {
		sources = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_turns
		 (session_id, turn_id, user_text, response_text, retrieved_sources, confidence, decision_path, loop_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sessionID, turn.TurnID, turn.UserText, turn.ResponseText, sources, turn.Confidence, turn.DecisionPath, string(turn.Loop),
	)
	if err != nil {
		return fmt.Errorf("store: save turn: %w", err)
	}
	return nil
}
