package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/knowledge"
)

const maxAgentBodyBytes = 1 << 20

// AgentStore is the persistence surface the agent endpoints need.
type AgentStore interface {
	CreateAgent(ctx context.Context, ident agent.Identity, mode agent.Mode) (string, error)
	AddKnowledge(ctx context.Context, agentID string, item agent.KnowledgeItem) (string, error)
}

// AgentsHandler handles POST /v1/agents.
type AgentsHandler struct {
	Store  AgentStore
	Logger *zap.Logger
}

type createAgentRequest struct {
	Name            string           `json:"name"`
	Role            string           `json:"role"`
	YearsExperience int              `json:"years_experience"`
	Style           string           `json:"communication_style"`
	Guardrails      agent.Guardrails `json:"guardrails"`
	Mode            string           `json:"mode"`
}

func (h AgentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ident := agent.Identity{
		Name:            strings.TrimSpace(req.Name),
		Role:            strings.TrimSpace(req.Role),
		YearsExperience: req.YearsExperience,
		Style:           agent.Style(req.Style),
		Guardrails:      req.Guardrails,
	}
	if err := ident.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	mode := agent.Mode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = agent.ModeInterview
	}
	if !agent.ValidMode(mode) {
		writeErrorParam(w, http.StatusBadRequest, "bad_request", "unknown mode", "mode")
		return
	}

	id, err := h.Store.CreateAgent(r.Context(), ident, mode)
	if err != nil {
		h.logError("create agent failed", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to create agent")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "mode": string(mode)})
}

func (h AgentsHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, zap.Error(err))
	}
}

// KnowledgeHandler handles POST /v1/agents/{id}/knowledge. The content is
// embedded on ingestion so sessions can load ready-made vectors.
type KnowledgeHandler struct {
	Store    AgentStore
	Embedder knowledge.Embedder
	Logger   *zap.Logger
}

type addKnowledgeRequest struct {
	Content string   `json:"content"`
	Source  string   `json:"source"`
	Modes   []string `json:"modes"`
}

func (h KnowledgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	agentID := strings.TrimSpace(r.PathValue("id"))
	if agentID == "" {
		writeErrorParam(w, http.StatusBadRequest, "bad_request", "agent id is required", "id")
		return
	}

	var req addKnowledgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeErrorParam(w, http.StatusBadRequest, "bad_request", "content is required", "content")
		return
	}

	embedding, err := h.Embedder.Embed(r.Context(), req.Content)
	if err != nil {
		h.logError("embedding failed", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", "failed to embed content")
		return
	}

	id, err := h.Store.AddKnowledge(r.Context(), agentID, agent.KnowledgeItem{
		Content:   req.Content,
		Embedding: embedding,
		Source:    req.Source,
		Modes:     req.Modes,
	})
	if err != nil {
		h.logError("add knowledge failed", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to store knowledge")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h KnowledgeHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAgentBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed json body")
		return false
	}
	return true
}
