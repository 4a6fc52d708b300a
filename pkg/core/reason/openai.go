package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

const (
	openaiDefaultModel = openai.GPT4oMini
	openaiPlanModel    = openai.GPT4oMini
)

// OpenAIReasoner implements Reasoner on the OpenAI chat completions API.
type OpenAIReasoner struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a reasoner with the default model.
func NewOpenAI(apiKey string) *OpenAIReasoner {
	return &OpenAIReasoner{client: openai.NewClient(apiKey), model: openaiDefaultModel}
}

// NewOpenAIWithClient injects a configured client; model falls back to the
// default when empty.
func NewOpenAIWithClient(client *openai.Client, model string) *OpenAIReasoner {
	if model == "" {
		model = openaiDefaultModel
	}
	return &OpenAIReasoner{client: client, model: model}
}

// Name returns the provider identifier.
func (r *OpenAIReasoner) Name() string { return "openai" }

// Generate runs a single-shot completion under a bounded retry. Transient
// upstream failures get one backoff retry; the caller converts a final error
// into the apology path.
func (r *OpenAIReasoner) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	var text string
	backoff := retry.WithMaxRetries(1, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       r.model,
			MaxTokens:   maxTokens,
			Temperature: 0.7,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return text, nil
}

// Plan asks for a structured response plan in JSON mode. Failures fall back
// to a neutral "answer" plan so planning never blocks a turn.
func (r *OpenAIReasoner) Plan(ctx context.Context, contextStr string, history []Message) (*ResponsePlan, error) {
	recent := tailHistory(history, 3)
	historyJSON, _ := json.Marshal(recent)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openaiPlanModel,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: plannerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context: %s\nHistory: %s", contextStr, historyJSON)},
		},
	})
	if err != nil {
		return defaultPlan(), nil
	}
	if len(resp.Choices) == 0 {
		return defaultPlan(), nil
	}

	var plan ResponsePlan
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &plan); err != nil {
		return defaultPlan(), nil
	}
	if plan.Intent == "" {
		plan.Intent = "answer"
	}
	return &plan, nil
}
