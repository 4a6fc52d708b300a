package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/standin-ai/standin/pkg/core/boundary"
	"github.com/standin-ai/standin/pkg/core/knowledge"
	"github.com/standin-ai/standin/pkg/core/latency"
	"github.com/standin-ai/standin/pkg/core/reason"
)

// Canned responses returned without invoking the reasoning provider.
const (
	GreetingResponse    = "Hello! I am ready to begin."
	ClarifyResponse     = "Could you clarify that?"
	SystemErrorResponse = "I am experiencing a temporary system error."
	fallbackRefusal     = "I cannot answer that."
)

// refusalPhrase marks a generated response as a knowledge refusal. The
// system prompt instructs the model to use this exact wording.
const refusalPhrase = "I don't have that information"

// PolicyConfig holds the tunable decision thresholds.
type PolicyConfig struct {
	// FastWordLimit is the word count below which a non-question query
	// is routed through the fast loop.
	FastWordLimit int
	// FastMaxTokens caps fast-loop generation length.
	FastMaxTokens int
	// TrivialWordLimit is the word count at or below which a query with
	// no context is still allowed through rather than refused.
	TrivialWordLimit int
	// RetrievalThreshold is the minimum similarity score for a
	// knowledge item to count as relevant.
	RetrievalThreshold float64
	// RetrievalLimit caps the number of knowledge items per turn.
	RetrievalLimit int
	// TokensPerSecond converts the identity's answer-length guardrail
	// into a deep-loop token budget.
	TokensPerSecond int
}

// DefaultPolicyConfig returns the standard thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		FastWordLimit:      8,
		FastMaxTokens:      50,
		TrivialWordLimit:   3,
		RetrievalThreshold: 0.75,
		RetrievalLimit:     3,
		TokensPerSecond:    8,
	}
}

// Policy converts one user utterance into one response decision. It owns
// the session's identity and mode, and enforces the knowledge boundary
// through the gate before and after retrieval.
type Policy struct {
	identity  Identity
	gate      *boundary.Gate
	retriever knowledge.Retriever
	reasoner  reason.Reasoner
	cfg       PolicyConfig
	log       *zap.Logger

	mu             sync.Mutex
	mode           Mode
	standupContext string

	// Tracker, when set, receives per-turn decision checkpoints.
	Tracker *latency.Tracker

	// History, when set, supplies recent conversation context included in
	// deep-loop prompts.
	History func() string
}

// NewPolicy builds a Policy for one session. The identity is fixed for
// the session's lifetime.
func NewPolicy(identity Identity, mode Mode, gate *boundary.Gate, retriever knowledge.Retriever, reasoner reason.Reasoner, cfg PolicyConfig, log *zap.Logger) (*Policy, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("invalid mode: %q", mode)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{
		identity:  identity,
		mode:      mode,
		gate:      gate,
		retriever: retriever,
		reasoner:  reasoner,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Identity returns the session identity.
func (p *Policy) Identity() Identity { return p.identity }

// Mode returns the current session mode.
func (p *Policy) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SetMode switches the session mode.
func (p *Policy) SetMode(mode Mode) error {
	if !ValidMode(mode) {
		return fmt.Errorf("invalid mode: %q", mode)
	}
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
	p.log.Info("mode switched", zap.String("mode", string(mode)))
	return nil
}

// SetStandupContext sets the ephemeral context used in standup mode.
func (p *Policy) SetStandupContext(ctx string) {
	p.mu.Lock()
	p.standupContext = ctx
	p.mu.Unlock()
}

// Decide runs the full decision pipeline for one utterance. It never
// returns an error: provider failures become a fixed system-error
// response so the session keeps going.
func (p *Policy) Decide(ctx context.Context, query string) ConversationTurn {
	p.mu.Lock()
	mode := p.mode
	standupContext := p.standupContext
	p.mu.Unlock()

	verdict := p.gate.Evaluate(query, string(mode))
	p.mark(latency.CheckpointGateComplete)

	if verdict.Decision == boundary.Refuse {
		text := verdict.SuggestedTemplate
		if text == "" {
			text = fallbackRefusal
		}
		return ConversationTurn{
			UserText:     query,
			ResponseText: text,
			Confidence:   1.0,
			DecisionPath: "qbd_refusal_" + string(verdict.RefusalReason),
			Loop:         LoopFast,
		}
	}
	if verdict.Decision == boundary.AllowFast && verdict.Intent == boundary.IntentGreeting {
		return ConversationTurn{
			UserText:     query,
			ResponseText: GreetingResponse,
			Confidence:   1.0,
			DecisionPath: "qbd_fast_greeting",
			Loop:         LoopFast,
		}
	}

	words := len(strings.Fields(query))
	fast := words < p.cfg.FastWordLimit && !strings.Contains(query, "?")
	loop := LoopDeep
	if fast {
		loop = LoopFast
	}

	allowedModes := []string{string(mode)}
	if mode == ModeStandup {
		allowedModes = append(allowedModes, string(ModeGeneral))
	}

	docs, err := p.retriever.Search(ctx, query, allowedModes, p.cfg.RetrievalThreshold, p.cfg.RetrievalLimit)
	if err != nil {
		p.log.Warn("retrieval failed", zap.Error(err))
		docs = nil
	}

	var contextStr strings.Builder
	var sources []string
	topScore := 0.0

	if mode == ModeStandup && standupContext != "" {
		contextStr.WriteString("STANDUP CONTEXT (Ephemeral):\n")
		contextStr.WriteString(standupContext)
		contextStr.WriteString("\n\n")
	}

	if len(docs) > 0 {
		kv := p.gate.VerifyKnowledge(knowledge.Scores(docs), p.cfg.RetrievalThreshold)
		if kv.Decision == boundary.Refuse {
			for _, d := range docs {
				sources = append(sources, d.ID)
			}
			return ConversationTurn{
				UserText:         query,
				ResponseText:     kv.SuggestedTemplate,
				RetrievedSources: sources,
				Confidence:       kv.Confidence,
				DecisionPath:     "qbd_knowledge_refusal",
				Loop:             LoopFast,
			}
		}
		topScore = docs[0].Score
		contextStr.WriteString("KNOWLEDGE BASE:\n")
		for i, d := range docs {
			if i > 0 {
				contextStr.WriteString("\n")
			}
			contextStr.WriteString(d.Content)
			sources = append(sources, d.ID)
		}
	}

	if contextStr.Len() == 0 && words > p.cfg.TrivialWordLimit && fast {
		return ConversationTurn{
			UserText:     query,
			ResponseText: ClarifyResponse,
			DecisionPath: "fast_refusal",
			Loop:         loop,
		}
	}

	systemPrompt := compileSystemPrompt(p.identity, mode, fast)
	maxTokens := p.cfg.FastMaxTokens
	if !fast {
		seconds := p.identity.Guardrails.MaxAnswerSeconds
		if seconds <= 0 {
			seconds = 30
		}
		maxTokens = seconds * p.cfg.TokensPerSecond
	}

	turnContext := contextStr.String()
	if !fast && p.History != nil {
		if h := p.History(); h != "" {
			turnContext = h + "\n\n" + turnContext
		}
	}
	userPrompt := fmt.Sprintf("Context:\n%s\n\nUser Query: %s", turnContext, query)

	p.mark(latency.CheckpointGenerationStart)
	text, err := p.reasoner.Generate(ctx, systemPrompt, userPrompt, maxTokens)
	if err != nil {
		p.log.Error("generation failed", zap.Error(err))
		return ConversationTurn{
			UserText:     query,
			ResponseText: SystemErrorResponse,
			DecisionPath: "error",
			Loop:         loop,
		}
	}

	path := "retrieval"
	if strings.Contains(text, refusalPhrase) {
		path = "refusal"
	}

	return ConversationTurn{
		UserText:         query,
		ResponseText:     text,
		RetrievedSources: sources,
		Confidence:       topScore,
		DecisionPath:     path,
		Loop:             loop,
	}
}

func (p *Policy) mark(name string) {
	if p.Tracker != nil {
		p.Tracker.Mark(name)
	}
}
