package knowledge

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

// OpenAIEmbedder produces embeddings with the OpenAI embeddings API.
// text-embedding-3-small vectors come back normalized, which is what the
// cache's dot-product scoring assumes.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder for the given API key.
func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.SmallEmbedding3,
	}
}

// NewOpenAIEmbedderWithClient allows injecting a configured client, used by
// tests and by deployments routing through a proxy.
func NewOpenAIEmbedderWithClient(client *openai.Client) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: openai.SmallEmbedding3}
}

// Embed implements Embedder. Transient upstream failures get one backoff
// retry, the same budget the reasoners use.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	backoff := retry.WithMaxRetries(1, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: e.model,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("embedding response contained no data")
		}
		embedding = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	return embedding, nil
}
