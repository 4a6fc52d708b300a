// Package reason defines the reasoning-provider contract and its concrete
// implementations (OpenAI, Gemini).
package reason

import "context"

// Message is one turn of conversation history passed to the planner.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Planner intents.
const (
	IntentAnswer  = "answer"
	IntentClarify = "clarify"
	IntentListen  = "listen"
	IntentDeflect = "deflect"
)

// ResponsePlan is the structured output of the optional planning step.
type ResponsePlan struct {
	// Intent is one of "answer", "clarify", "listen", "deflect".
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Tone       string  `json:"tone"`
}

// Reasoner is the reasoning-provider contract. Generate is the single-shot
// completion used for every spoken response; Plan is the optional structured
// pre-speech step used by the memory-aware orchestrator variant.
type Reasoner interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	Plan(ctx context.Context, contextStr string, history []Message) (*ResponsePlan, error)
}

const plannerSystemPrompt = `You are the planning stage of a live meeting agent.
Analyze the conversation context and produce a JSON response plan.

Output schema:
{
  "intent": "answer" | "clarify" | "listen" | "deflect",
  "confidence": 0.0-1.0,
  "tone": "neutral" | "empathetic" | "confident"
}`

func defaultPlan() *ResponsePlan {
	return &ResponsePlan{Intent: "answer", Confidence: 0.5, Tone: "neutral"}
}

func tailHistory(history []Message, n int) []Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
