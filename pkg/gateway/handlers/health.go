package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/standin-ai/standin/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Pinger is the readiness check against the backing database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ReadyHandler struct {
	Config config.Config
	DB     Pinger
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK       bool     `json:"ok"`
		Reasoner string   `json:"reasoner"`
		Issues   []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.Reasoner {
	case config.ReasonerOpenAI, config.ReasonerGemini:
	default:
		issues = append(issues, "invalid reasoner")
	}
	if h.Config.DeepgramAPIKey == "" {
		issues = append(issues, "deepgram api key not configured")
	}
	if h.Config.ElevenLabsAPIKey == "" {
		issues = append(issues, "elevenlabs api key not configured")
	}
	if h.Config.MaxAudioFrameBytes <= 0 {
		issues = append(issues, "max audio frame bytes must be > 0")
	}
	if h.Config.HandshakeTimeout <= 0 || h.Config.WSWriteTimeout <= 0 {
		issues = append(issues, "websocket timeouts must be > 0")
	}
	if h.Config.SampleRate <= 0 {
		issues = append(issues, "sample rate must be > 0")
	}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			issues = append(issues, "database unreachable")
		}
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, readyResp{
		OK:       ok,
		Reasoner: string(h.Config.Reasoner),
		Issues:   issues,
	})
}
