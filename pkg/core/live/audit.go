package live

import (
	"context"
	"time"

	"github.com/standin-ai/standin/pkg/core/agent"
)

// TranscriptLine is one spoken line, user or agent, for the audit trail.
type TranscriptLine struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// AuditSink receives append-only transcript lines and turn records.
// Writes are best-effort: the session logs failures and keeps going.
type AuditSink interface {
	SaveTranscript(ctx context.Context, line TranscriptLine) error
	SaveTurn(ctx context.Context, sessionID string, turn agent.ConversationTurn) error
}

// NopAuditSink discards everything.
type NopAuditSink struct{}

func (NopAuditSink) SaveTranscript(context.Context, TranscriptLine) error { return nil }

func (NopAuditSink) SaveTurn(context.Context, string, agent.ConversationTurn) error { return nil }
