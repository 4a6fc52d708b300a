package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/standin-ai/standin/pkg/core/agent"
)

type fakeAgentStore struct {
	createdIdent agent.Identity
	createdMode  agent.Mode
	addedAgentID string
	addedItem    agent.KnowledgeItem
	failCreate   bool
}

func (s *fakeAgentStore) CreateAgent(_ context.Context, ident agent.Identity, mode agent.Mode) (string, error) {
	if s.failCreate {
		return "", errors.New("insert failed")
	}
	s.createdIdent = ident
	s.createdMode = mode
	return "agent-1", nil
}

func (s *fakeAgentStore) AddKnowledge(_ context.Context, agentID string, item agent.KnowledgeItem) (string, error) {
	s.addedAgentID = agentID
	s.addedItem = item
	return "k-1", nil
}

type unitEmbedder struct{ fail bool }

func (e unitEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	return []float32{1, 0}, nil
}

func agentsMux(store *fakeAgentStore, embedder unitEmbedder) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/agents", AgentsHandler{Store: store})
	mux.Handle("POST /v1/agents/{id}/knowledge", KnowledgeHandler{Store: store, Embedder: embedder})
	return mux
}

func TestCreateAgent(t *testing.T) {
	store := &fakeAgentStore{}
	mux := agentsMux(store, unitEmbedder{})

	body := `{"name":"Alex Chen","role":"Backend Engineer","years_experience":9,"communication_style":"concise","guardrails":{"max_answer_seconds":20},"mode":"standup"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] != "agent-1" || resp["mode"] != "standup" {
		t.Fatalf("resp = %v", resp)
	}
	if store.createdIdent.Name != "Alex Chen" || store.createdIdent.Guardrails.MaxAnswerSeconds != 20 {
		t.Fatalf("stored identity = %+v", store.createdIdent)
	}
}

func TestCreateAgent_DefaultsToInterview(t *testing.T) {
	store := &fakeAgentStore{}
	mux := agentsMux(store, unitEmbedder{})

	body := `{"name":"Alex","role":"Engineer"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.createdMode != agent.ModeInterview {
		t.Fatalf("mode = %q, want interview", store.createdMode)
	}
}

func TestCreateAgent_Invalid(t *testing.T) {
	mux := agentsMux(&fakeAgentStore{}, unitEmbedder{})

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"role":"Engineer"}`},
		{"missing role", `{"name":"Alex"}`},
		{"unknown mode", `{"name":"Alex","role":"Engineer","mode":"karaoke"}`},
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"Alex","role":"Engineer","moode":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateAgent_StoreFailure(t *testing.T) {
	mux := agentsMux(&fakeAgentStore{failCreate: true}, unitEmbedder{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(`{"name":"Alex","role":"Engineer"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestAddKnowledge(t *testing.T) {
	store := &fakeAgentStore{}
	mux := agentsMux(store, unitEmbedder{})

	body := `{"content":"Led the billing migration.","source":"resume.pdf","modes":["interview"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents/agent-1/knowledge", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.addedAgentID != "agent-1" {
		t.Fatalf("agent id = %q", store.addedAgentID)
	}
	if store.addedItem.Source != "resume.pdf" || len(store.addedItem.Embedding) != 2 {
		t.Fatalf("stored item = %+v", store.addedItem)
	}
	if len(store.addedItem.Modes) != 1 || store.addedItem.Modes[0] != "interview" {
		t.Fatalf("modes = %v", store.addedItem.Modes)
	}
}

func TestAddKnowledge_ContentRequired(t *testing.T) {
	mux := agentsMux(&fakeAgentStore{}, unitEmbedder{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents/agent-1/knowledge", strings.NewReader(`{"content":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAddKnowledge_EmbedderFailure(t *testing.T) {
	mux := agentsMux(&fakeAgentStore{}, unitEmbedder{fail: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/agents/agent-1/knowledge", strings.NewReader(`{"content":"something"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
