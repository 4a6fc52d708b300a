package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiReasoner implements Reasoner on the Gemini API.
type GeminiReasoner struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed reasoner.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiReasoner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiReasoner{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (r *GeminiReasoner) Name() string { return "gemini" }

// Generate implements Reasoner.
func (r *GeminiReasoner) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	var text string
	backoff := retry.WithMaxRetries(1, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(userPrompt), cfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		text = strings.TrimSpace(resp.Text())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return text, nil
}

// Plan implements Reasoner. Gemini has no strict JSON mode toggle here, so
// the schema is carried in the prompt and parse failures fall back to the
// neutral plan.
func (r *GeminiReasoner) Plan(ctx context.Context, contextStr string, history []Message) (*ResponsePlan, error) {
	recent := tailHistory(history, 3)
	historyJSON, _ := json.Marshal(recent)

	prompt := fmt.Sprintf("%s\n\nContext: %s\nHistory: %s\n\nRespond with only the JSON object.",
		plannerSystemPrompt, contextStr, historyJSON)

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return defaultPlan(), nil
	}

	var plan ResponsePlan
	if err := json.Unmarshal([]byte(resp.Text()), &plan); err != nil {
		return defaultPlan(), nil
	}
	if plan.Intent == "" {
		plan.Intent = "answer"
	}
	return &plan, nil
}
