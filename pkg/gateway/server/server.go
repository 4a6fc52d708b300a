// Package server assembles the gateway: routes, middleware, and the
// provider stack behind live sessions.
package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/standin-ai/standin/pkg/core/knowledge"
	"github.com/standin-ai/standin/pkg/core/live"
	"github.com/standin-ai/standin/pkg/core/reason"
	"github.com/standin-ai/standin/pkg/core/voice/stt"
	"github.com/standin-ai/standin/pkg/core/voice/tts"
	"github.com/standin-ai/standin/pkg/gateway/config"
	"github.com/standin-ai/standin/pkg/gateway/handlers"
	"github.com/standin-ai/standin/pkg/gateway/live/sessions"
	"github.com/standin-ai/standin/pkg/gateway/mw"
	"github.com/standin-ai/standin/pkg/store"
)

// Providers are the external services live sessions speak to.
type Providers struct {
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Reasoner    reason.Reasoner
	Embedder    knowledge.Embedder
}

// NewProviders builds the provider stack the configuration selects.
func NewProviders(ctx context.Context, cfg config.Config) (Providers, error) {
	var reasoner reason.Reasoner
	switch cfg.Reasoner {
	case config.ReasonerOpenAI:
		reasoner = reason.NewOpenAI(cfg.OpenAIAPIKey)
	case config.ReasonerGemini:
		r, err := reason.NewGemini(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return Providers{}, fmt.Errorf("gemini reasoner: %w", err)
		}
		reasoner = r
	default:
		return Providers{}, fmt.Errorf("unknown reasoner %q", cfg.Reasoner)
	}

	return Providers{
		Transcriber: stt.NewDeepgram(cfg.DeepgramAPIKey),
		Synthesizer: tts.NewElevenLabs(cfg.ElevenLabsAPIKey),
		Reasoner:    reasoner,
		Embedder:    knowledge.NewOpenAIEmbedder(cfg.OpenAIAPIKey),
	}, nil
}

// Deps are the backends the routes need. DepsFromStore wires them all to
// the database; tests substitute fakes.
type Deps struct {
	Loader    live.Loader
	Audit     live.AuditSink
	Agents    handlers.AgentStore
	DB        handlers.Pinger
	Providers Providers
}

// DepsFromStore points every backend at the given store.
func DepsFromStore(st *store.Store, p Providers) Deps {
	return Deps{
		Loader:    st,
		Audit:     st,
		Agents:    st,
		DB:        st.Pool(),
		Providers: p,
	}
}

type Server struct {
	cfg      config.Config
	logger   *zap.Logger
	deps     Deps
	sessions *sessions.Tracker
	mux      *http.ServeMux
}

func New(cfg config.Config, logger *zap.Logger, deps Deps) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		deps:     deps,
		sessions: sessions.NewTracker(),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg, DB: s.deps.DB})

	s.mux.Handle("POST /v1/agents", handlers.AgentsHandler{
		Store:  s.deps.Agents,
		Logger: s.logger,
	})
	s.mux.Handle("POST /v1/agents/{id}/knowledge", handlers.KnowledgeHandler{
		Store:    s.deps.Agents,
		Embedder: s.deps.Providers.Embedder,
		Logger:   s.logger,
	})

	s.mux.Handle("/v1/live", handlers.LiveHandler{
		Config:      s.cfg,
		Loader:      s.deps.Loader,
		Audit:       s.deps.Audit,
		Transcriber: s.deps.Providers.Transcriber,
		Synthesizer: s.deps.Providers.Synthesizer,
		Reasoner:    s.deps.Providers.Reasoner,
		Embedder:    s.deps.Providers.Embedder,
		Sessions:    s.sessions,
		Logger:      s.logger,
	})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Sessions exposes the live session registry.
func (s *Server) Sessions() *sessions.Tracker { return s.sessions }

// Drain notifies every live session, cancels them, and waits for the
// registry to empty or the context to end.
func (s *Server) Drain(ctx context.Context) bool {
	notified := s.sessions.NotifyAll("shutting_down", "server is shutting down")
	cancelled := s.sessions.CancelAll()
	s.logger.Info("draining live sessions",
		zap.Int("notified", notified),
		zap.Int("cancelled", cancelled),
	)
	return s.sessions.Wait(ctx)
}
