package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/knowledge"
	"github.com/standin-ai/standin/pkg/core/live"
	"github.com/standin-ai/standin/pkg/core/reason"
	"github.com/standin-ai/standin/pkg/core/voice/stt"
	"github.com/standin-ai/standin/pkg/core/voice/tts"
	"github.com/standin-ai/standin/pkg/gateway/config"
	"github.com/standin-ai/standin/pkg/gateway/live/protocol"
	"github.com/standin-ai/standin/pkg/gateway/live/sessions"
)

// LiveHandler handles /v1/live websocket sessions. One connection is one
// session: hello in, ready out, then binary audio up and binary audio down
// until a close frame reports why the session ended.
type LiveHandler struct {
	Config      config.Config
	Loader      live.Loader
	Audit       live.AuditSink
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Reasoner    reason.Reasoner
	Embedder    knowledge.Embedder
	Sessions    *sessions.Tracker
	Logger      *zap.Logger
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ws := newWSConn(conn, h.Config.WSWriteTimeout)

	handshakeTimeout := h.Config.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 5 * time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	messageType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		h.rejectHandshake(ws, "bad_request", "failed to read hello")
		return
	}
	if messageType != websocket.TextMessage {
		h.rejectHandshake(ws, "bad_request", "first frame must be hello")
		return
	}

	hello, derr := protocol.DecodeHello(firstFrame)
	if derr != nil {
		h.rejectHandshake(ws, derr.Code, derr.Error())
		return
	}
	if hello.Mode != "" && !agent.ValidMode(agent.Mode(hello.Mode)) {
		h.rejectHandshake(ws, "bad_request", "unknown mode")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	session := live.NewSession(hello.AgentID, h.liveConfig(hello), live.Deps{
		Loader:      h.Loader,
		Transcriber: h.Transcriber,
		Synthesizer: h.Synthesizer,
		Reasoner:    h.Reasoner,
		Embedder:    h.Embedder,
		Audit:       h.Audit,
		Logger:      h.Logger,
	})
	session.SetOutput(func(ctx context.Context, chunk []byte) error {
		return ws.WriteBinary(chunk)
	})

	if err := ws.WriteJSON(protocol.NewReady(session.ID)); err != nil {
		return
	}

	unregister := func() {}
	if h.Sessions != nil {
		unregister = h.Sessions.Register(session.ID, sessions.Handle{
			Cancel: func() { session.Close(live.CloseReasonEnded) },
			Notify: func(code, message string) error {
				return ws.WriteJSON(protocol.NewNotice(code, message))
			},
		})
	}
	defer unregister()

	readDone := make(chan struct{})
	go h.readPump(conn, ws, session, readDone)

	if h.Config.WSPingInterval > 0 {
		pingStop := make(chan struct{})
		defer close(pingStop)
		go ws.pingLoop(h.Config.WSPingInterval, pingStop)
	}

	if err := session.Run(r.Context()); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("live session ended with error",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
	}

	_ = ws.WriteJSON(protocol.NewClose(session.CloseReason()))
	ws.CloseNormal(session.CloseReason())
	conn.Close()
	<-readDone
}

// readPump drains client frames for the lifetime of the connection: binary
// frames feed the session's audio queue, text frames are control messages.
func (h LiveHandler) readPump(conn *websocket.Conn, ws *wsConn, session *live.Session, done chan<- struct{}) {
	defer close(done)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			session.Close(live.CloseReasonClientDisconnect)
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			if h.Config.MaxAudioFrameBytes > 0 && len(data) > h.Config.MaxAudioFrameBytes {
				_ = ws.WriteJSON(protocol.NewNotice("frame_too_large", "audio frame exceeds limit"))
				continue
			}
			session.IngestAudio(data)
		case websocket.TextMessage:
			ctl, derr := protocol.DecodeControl(data)
			if derr != nil {
				_ = ws.WriteJSON(protocol.NewNotice(derr.Code, derr.Error()))
				continue
			}
			switch ctl.Type {
			case protocol.TypeSetMode:
				if err := session.SetMode(strings.TrimSpace(ctl.Mode)); err != nil {
					_ = ws.WriteJSON(protocol.NewNotice("bad_request", err.Error()))
				}
			case protocol.TypeContext:
				if err := session.SetStandupContext(ctl.Context); err != nil {
					_ = ws.WriteJSON(protocol.NewNotice("bad_request", err.Error()))
				}
			case protocol.TypeClientBy:
				session.Close(live.CloseReasonClientDisconnect)
				return
			}
		}
	}
}

func (h LiveHandler) liveConfig(hello protocol.ClientHello) live.Config {
	cfg := live.Config{
		NoiseFloorChars:   h.Config.NoiseFloorChars,
		InterruptMinChars: h.Config.InterruptMinChars,
		PacingInterview:   h.Config.PacingInterview,
		PacingStandup:     h.Config.PacingStandup,
		PacingGeneral:     h.Config.PacingGeneral,
		AudioInQueue:      h.Config.AudioInQueue,
		AudioOutQueue:     h.Config.AudioOutQueue,
		MemoryWindow:      h.Config.MemoryWindow,
		SampleRate:        h.Config.SampleRate,
		Voice:             h.Config.DefaultVoiceID,
		EnablePlanner:     h.Config.EnablePlanner,
		ModeOverride:      strings.TrimSpace(hello.Mode),
		StandupContext:    hello.StandupContext,
	}
	if v := strings.TrimSpace(hello.VoiceID); v != "" {
		cfg.Voice = v
	}
	if hello.SampleRateHz > 0 {
		cfg.SampleRate = hello.SampleRateHz
	}
	return cfg
}

func (h LiveHandler) rejectHandshake(ws *wsConn, code, message string) {
	_ = ws.WriteJSON(protocol.NewNotice(code, message))
	_ = ws.WriteJSON(protocol.NewClose(code))
	ws.ClosePolicy(message)
}
