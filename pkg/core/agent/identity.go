// Package agent holds the per-session agent runtime: the immutable identity,
// the session mode, the in-memory knowledge cache, and the decision policy
// that turns one user utterance into one response.
package agent

import "fmt"

// Mode governs which knowledge is eligible and which instructions apply.
type Mode string

const (
	ModeInterview Mode = "interview"
	ModeStandup   Mode = "standup"
	ModeGeneral   Mode = "general"
)

// ValidMode reports whether m is a known session mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeInterview, ModeStandup, ModeGeneral:
		return true
	}
	return false
}

// Style is the agent's communication style.
type Style string

const (
	StyleConfident Style = "confident"
	StyleConcise   Style = "concise"
	StyleCasual    Style = "casual"
	StyleFormal    Style = "formal"
)

// Guardrails are structured output limits attached to an identity.
type Guardrails struct {
	// MaxAnswerSeconds bounds spoken answer length; the deep-loop token
	// budget is derived from it.
	MaxAnswerSeconds int `json:"max_answer_seconds"`
}

// Identity describes who the agent speaks as. It is loaded once at session
// start and never mutated during the session.
type Identity struct {
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	YearsExperience int        `json:"years_experience"`
	Style           Style      `json:"communication_style"`
	Guardrails      Guardrails `json:"guardrails"`
}

// Validate checks the fields a session cannot run without.
func (id Identity) Validate() error {
	if id.Name == "" {
		return fmt.Errorf("identity name is required")
	}
	if id.Role == "" {
		return fmt.Errorf("identity role is required")
	}
	return nil
}

// LoopKind labels which generation path produced a response.
type LoopKind string

const (
	LoopFast LoopKind = "FAST"
	LoopDeep LoopKind = "DEEP"
)

// ConversationTurn is the immutable record of one utterance-response cycle,
// forwarded to the audit sink after the turn completes.
type ConversationTurn struct {
	TurnID           string   `json:"turn_id"`
	UserText         string   `json:"user_text"`
	ResponseText     string   `json:"response_text"`
	RetrievedSources []string `json:"retrieved_sources,omitempty"`
	Confidence       float64  `json:"confidence"`
	DecisionPath     string   `json:"decision_path"`
	Loop             LoopKind `json:"loop_used"`
}
