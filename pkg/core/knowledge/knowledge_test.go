package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestScores(t *testing.T) {
	results := []Result{
		{ID: "a", Score: 0.92},
		{ID: "b", Score: 0.81},
	}
	scores := Scores(results)
	if len(scores) != 2 || scores[0] != 0.92 || scores[1] != 0.81 {
		t.Fatalf("scores = %v", scores)
	}
	if Scores(nil) != nil {
		t.Fatal("empty input should yield nil")
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotInput = req.Input
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.6, 0.8}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	e := NewOpenAIEmbedderWithClient(openai.NewClientWithConfig(cfg))

	vec, err := e.Embed(context.Background(), "payments migration")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.6 {
		t.Fatalf("vector = %v", vec)
	}
	if len(gotInput) != 1 || gotInput[0] != "payments migration" {
		t.Fatalf("request input = %v", gotInput)
	}
}

func TestOpenAIEmbedder_RetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, `{"error":{"message":"upstream hiccup"}}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	e := NewOpenAIEmbedderWithClient(openai.NewClientWithConfig(cfg))

	vec, err := e.Embed(context.Background(), "flaky upstream")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.2 {
		t.Fatalf("vector = %v", vec)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestOpenAIEmbedder_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	e := NewOpenAIEmbedderWithClient(openai.NewClientWithConfig(cfg))

	if _, err := e.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty embedding data")
	}
}
