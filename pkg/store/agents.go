package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/live"
)

// LoadIdentity resolves the agent record for a session. A missing record
// is reported as live.ErrAgentNotFound, which is fatal to session start.
func (s *Store) LoadIdentity(ctx context.Context, agentID string) (agent.Identity, agent.Mode, error) {
	var (
		ident      agent.Identity
		style      string
		mode       string
		guardrails []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT name, role, years_experience, communication_style, guardrails, mode
		 FROM agents WHERE id = $1`, agentID,
	).Scan(&ident.Name, &ident.Role, &ident.YearsExperience, &style, &guardrails, &mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return agent.Identity{}, "", fmt.Errorf("%w: %s", live.ErrAgentNotFound, agentID)
	}
	if err != nil {
		return agent.Identity{}, "", fmt.Errorf("store: load agent: %w", err)
	}

	ident.Style = agent.Style(style)
	if len(guardrails) > 0 {
		if err := json.Unmarshal(guardrails, &ident.Guardrails); err != nil {
			return agent.Identity{}, "", fmt.Errorf("store: decode guardrails: %w", err)
		}
	}
	return ident, agent.Mode(mode), nil
}

// CreateAgent inserts an agent record and returns its id.
func (s *Store) CreateAgent(ctx context.Context, ident agent.Identity, mode agent.Mode) (string, error) {
	guardrails, err := json.Marshal(ident.Guardrails)
	if err != nil {
		return "", fmt.Errorf("store: encode guardrails: %w", err)
	}
	var id string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO agents (name, role, years_experience, communication_style, guardrails, mode)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		ident.Name, ident.Role, ident.YearsExperience, string(ident.Style), guardrails, string(mode),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: create agent: %w", err)
	}
	return id, nil
}
