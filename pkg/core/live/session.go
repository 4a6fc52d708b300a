package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/standin-ai/standin/pkg/core/agent"
	"github.com/standin-ai/standin/pkg/core/boundary"
	"github.com/standin-ai/standin/pkg/core/knowledge"
	"github.com/standin-ai/standin/pkg/core/latency"
	"github.com/standin-ai/standin/pkg/core/reason"
	"github.com/standin-ai/standin/pkg/core/voice/stt"
	"github.com/standin-ai/standin/pkg/core/voice/tts"
)

// ErrAgentNotFound is returned by a Loader when the backing agent record
// does not exist. It is fatal to session start.
var ErrAgentNotFound = errors.New("agent not found")

// Session close reasons reported to the transport.
const (
	CloseReasonAgentNotFound    = "agent_not_found"
	CloseReasonAgentLoadFailed  = "agent_load_failed"
	CloseReasonSTTUnavailable   = "stt_unavailable"
	CloseReasonClientDisconnect = "client_disconnected"
	CloseReasonEnded            = "session_ended"
)

// Loader resolves the agent record and its knowledge at session start.
type Loader interface {
	LoadIdentity(ctx context.Context, agentID string) (agent.Identity, agent.Mode, error)
	ListKnowledge(ctx context.Context, agentID string, modes []string) ([]agent.KnowledgeItem, error)
}

// Deps are the providers a session is constructed with. All of them are
// selected by the caller; the session never reaches for globals.
type Deps struct {
	Loader      Loader
	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	Reasoner    reason.Reasoner
	Embedder    knowledge.Embedder
	Audit       AuditSink
	Logger      *zap.Logger
}

// Session owns one live conversation: the audio queues, the turn governor,
// and the per-turn decide-then-speak cycle. Three activities progress
// concurrently once Run starts: audio ingestion into the transcriber,
// transcript consumption with turn processing, and outbound delivery.
type Session struct {
	ID      string
	AgentID string

	cfg  Config
	deps Deps
	log  *zap.Logger

	governor *Governor
	memory   *Memory
	tracker  *latency.Tracker
	policy   *agent.Policy

	audioIn  chan []byte
	audioOut chan []byte
	dropped  atomic.Int64

	// sink writes outbound audio to the transport.
	sink func(ctx context.Context, chunk []byte) error

	mu          sync.Mutex
	state       SessionState
	closeReason string
	cancel      context.CancelFunc
}

// NewSession builds a session in the INITIALIZING state.
func NewSession(agentID string, cfg Config, deps Deps) *Session {
	if deps.Audit == nil {
		deps.Audit = NopAuditSink{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:      id,
		AgentID: agentID,
		cfg:     cfg,
		deps:    deps,
		log:     log.With(zap.String("session_id", id), zap.String("agent_id", agentID)),
		governor: NewGovernor(GovernorConfig{
			InterruptMinChars: cfg.InterruptMinChars,
			PacingInterview:   cfg.PacingInterview,
			PacingStandup:     cfg.PacingStandup,
			PacingGeneral:     cfg.PacingGeneral,
		}),
		memory:   NewMemory(cfg.MemoryWindow),
		tracker:  latency.NewTracker(),
		audioIn:  make(chan []byte, cfg.AudioInQueue),
		audioOut: make(chan []byte, cfg.AudioOutQueue),
	}
}

// SetOutput installs the transport write used by the delivery activity.
// Must be called before Run.
func (s *Session) SetOutput(sink func(ctx context.Context, chunk []byte) error) {
	s.sink = sink
}

// State returns the session lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CloseReason returns the machine-readable reason the session ended, or
// empty while it is still running.
func (s *Session) CloseReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeReason
}

// Governor exposes the turn state machine, mainly for tests and metrics.
func (s *Session) Governor() *Governor { return s.governor }

// SetMode switches the conversation mode. Returns an error when the
// mode is unknown or the session has not finished starting.
func (s *Session) SetMode(mode string) error {
	s.mu.Lock()
	policy := s.policy
	s.mu.Unlock()
	if policy == nil {
		return fmt.Errorf("session not ready")
	}
	return policy.SetMode(agent.Mode(mode))
}

// SetStandupContext installs the ephemeral standup notes used to answer
// status questions in standup mode.
func (s *Session) SetStandupContext(text string) error {
	s.mu.Lock()
	policy := s.policy
	s.mu.Unlock()
	if policy == nil {
		return fmt.Errorf("session not ready")
	}
	policy.SetStandupContext(text)
	return nil
}

// IngestAudio enqueues one inbound audio chunk. Never blocks: if the
// queue is full the chunk is dropped and counted.
func (s *Session) IngestAudio(chunk []byte) {
	select {
	case s.audioIn <- chunk:
	default:
		s.dropped.Add(1)
	}
}

// DroppedChunks reports how many inbound chunks were shed under pressure.
func (s *Session) DroppedChunks() int64 { return s.dropped.Load() }

// Close ends the session with the given reason. Safe to call more than
// once; the first reason wins.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	if s.closeReason == "" {
		s.closeReason = reason
	}
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) failStart(reason string, err error) error {
	s.mu.Lock()
	if s.closeReason == "" {
		s.closeReason = reason
	}
	s.mu.Unlock()
	s.log.Error("session start failed", zap.String("reason", reason), zap.Error(err))
	return err
}

// Run executes the session until the context ends, the transcript stream
// closes, or Close is called. It loads the agent record, warm-starts the
// knowledge cache, speaks the disclosure, and then drives the three
// session activities.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()
	defer s.setState(StateClosed)

	ident, mode, err := s.deps.Loader.LoadIdentity(ctx, s.AgentID)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			return s.failStart(CloseReasonAgentNotFound, err)
		}
		return s.failStart(CloseReasonAgentLoadFailed, err)
	}
	if s.cfg.ModeOverride != "" {
		override := agent.Mode(s.cfg.ModeOverride)
		if !agent.ValidMode(override) {
			return s.failStart(CloseReasonAgentLoadFailed, fmt.Errorf("unknown mode %q", s.cfg.ModeOverride))
		}
		mode = override
	}

	cache := agent.NewCognitiveCache()
	s.warmStart(ctx, cache, mode)

	policy, err := agent.NewPolicy(
		ident,
		mode,
		boundary.NewGate(boundary.DefaultConfig()),
		agent.NewCacheRetriever(cache, s.deps.Embedder),
		s.deps.Reasoner,
		agent.DefaultPolicyConfig(),
		s.log,
	)
	if err != nil {
		return s.failStart(CloseReasonAgentLoadFailed, err)
	}
	policy.Tracker = s.tracker
	policy.History = s.memory.ContextString
	if s.cfg.StandupContext != "" {
		policy.SetStandupContext(s.cfg.StandupContext)
	}
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()

	sttStream, err := s.deps.Transcriber.Stream(ctx, stt.StreamOptions{SampleRate: s.cfg.SampleRate})
	if err != nil {
		return s.failStart(CloseReasonSTTUnavailable, err)
	}
	defer sttStream.Close()

	// Delivery must be running before the disclosure is spoken: synthesize
	// blocks on the bounded audio queue, and only deliverLoop drains it.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.deliverLoop(gctx) })

	s.setState(StateDisclosing)
	s.speakDisclosure(gctx, mode)

	s.setState(StateListening)
	s.log.Info("session listening", zap.String("mode", string(mode)), zap.Int("cache_items", cache.Len()))

	g.Go(func() error { return s.ingestLoop(gctx, sttStream) })
	g.Go(func() error { return s.processLoop(gctx, sttStream) })

	err = g.Wait()
	s.mu.Lock()
	if s.closeReason == "" {
		s.closeReason = CloseReasonEnded
	}
	s.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// warmStart loads mode-eligible knowledge into the cache and freezes it.
// Failure degrades to an empty cache; retrieval then yields the
// knowledge-refusal path instead of blocking the first turn.
func (s *Session) warmStart(ctx context.Context, cache *agent.CognitiveCache, mode agent.Mode) {
	defer cache.Freeze()

	modes := []string{string(mode)}
	if mode == agent.ModeStandup {
		modes = append(modes, string(agent.ModeGeneral))
	}
	items, err := s.deps.Loader.ListKnowledge(ctx, s.AgentID, modes)
	if err != nil {
		s.log.Warn("warm start failed", zap.Error(err))
		return
	}
	for _, item := range items {
		cache.Add(item)
	}
	s.log.Info("warm start complete", zap.Int("items", len(items)))
}

// speakDisclosure announces the agent is an AI before the first turn.
// Failures are logged and ignored.
func (s *Session) speakDisclosure(ctx context.Context, mode agent.Mode) {
	text := fmt.Sprintf("I am an AI assistant, this session is being recorded for %s purposes.", mode)

	s.auditTranscript(ctx, "agent", text)
	if err := s.synthesize(ctx, text, nil); err != nil {
		s.log.Warn("disclosure synthesis failed", zap.Error(err))
	}
}

func (s *Session) ingestLoop(ctx context.Context, stream stt.Stream) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-s.audioIn:
			if err := stream.SendAudio(chunk); err != nil {
				s.log.Warn("audio forwarding failed", zap.Error(err))
				return err
			}
		}
	}
}

func (s *Session) processLoop(ctx context.Context, stream stt.Stream) error {
	var speakDone chan struct{}
	waitSpeak := func() {
		if speakDone != nil {
			<-speakDone
			speakDone = nil
		}
	}
	defer waitSpeak()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frag, ok := <-stream.Fragments():
			if !ok {
				// Transcript stream ended; wind the session down.
				s.Close(CloseReasonEnded)
				return nil
			}
			text := strings.TrimSpace(frag.Text)

			// Substantial speech over the agent cuts it off. The
			// fragment itself is consumed; the next one starts the
			// new turn.
			if s.governor.ShouldInterrupt(text) {
				s.interrupt(text)
				continue
			}
			if !frag.IsFinal {
				continue
			}
			if len(text) <= s.cfg.NoiseFloorChars {
				continue
			}

			waitSpeak()
			s.governor.ClearForNextTurn()

			turn := s.decideTurn(ctx, text)
			if turn == nil || turn.ResponseText == "" {
				continue
			}

			done := make(chan struct{})
			speakDone = done
			go func(t agent.ConversationTurn) {
				defer close(done)
				s.speak(ctx, t)
			}(*turn)
		}
	}
}

func (s *Session) deliverLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-s.audioOut:
			if s.sink == nil {
				continue
			}
			if err := s.sink(ctx, chunk); err != nil {
				s.log.Warn("outbound delivery failed", zap.Error(err))
				return err
			}
		}
	}
}

// decideTurn runs one utterance through memory, the optional planner, and
// the policy. Returns nil when the agent should stay quiet.
func (s *Session) decideTurn(ctx context.Context, text string) *agent.ConversationTurn {
	s.setState(StateProcessing)
	defer s.setState(StateListening)

	s.tracker.StartTurn()
	s.tracker.Mark(latency.CheckpointSTTComplete)

	admitted := s.governor.AdmitSpeechRequest()

	s.memory.Add("user", text)
	s.auditTranscript(ctx, "user", text)

	if s.cfg.EnablePlanner {
		plan, err := s.deps.Reasoner.Plan(ctx, s.memory.ContextString(), s.memory.History())
		if err == nil && plan.Intent == reason.IntentListen {
			s.log.Debug("planner chose to listen", zap.String("utterance", text))
			s.governor.ClearForNextTurn()
			return nil
		}
	}

	turn := s.policy.Decide(ctx, text)
	turn.TurnID = uuid.NewString()

	s.memory.Add("agent", turn.ResponseText)
	s.auditTurn(ctx, turn)

	s.log.Info("turn decided",
		zap.String("turn_id", turn.TurnID),
		zap.String("decision_path", turn.DecisionPath),
		zap.String("loop", string(turn.Loop)),
		zap.Float64("confidence", turn.Confidence),
	)

	if !admitted {
		return nil
	}
	return &turn
}

// speak paces, synthesizes, and streams one response to the output queue,
// stopping between chunks if the turn is interrupted.
func (s *Session) speak(ctx context.Context, turn agent.ConversationTurn) {
	mode := string(s.policy.Mode())
	if d := s.governor.PacingDelay(mode, turn.Loop == agent.LoopFast); d > 0 && !s.governor.Interrupted() {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return
		}
	}

	if !s.governor.StartSpeaking() {
		return
	}
	s.setState(StateSpeaking)
	defer s.setState(StateListening)

	firstByte := false
	err := s.synthesize(ctx, turn.ResponseText, func() bool {
		if !firstByte {
			s.tracker.Mark(latency.CheckpointSynthesisFirstByte)
			firstByte = true
		}
		return !s.governor.Interrupted()
	})
	if err != nil {
		s.log.Warn("synthesis failed", zap.String("turn_id", turn.TurnID), zap.Error(err))
	}

	if !s.governor.Interrupted() {
		s.governor.FinishSpeaking()
	}

	report := s.tracker.Report()
	fields := make([]zap.Field, 0, len(report)+1)
	fields = append(fields, zap.String("turn_id", turn.TurnID))
	for name, d := range report {
		fields = append(fields, zap.Duration(name, d))
	}
	s.log.Info("turn latency", fields...)
}

// synthesize streams text through the synthesizer into the output queue.
// onChunk, when set, runs before each chunk is enqueued and aborts the
// stream by returning false.
func (s *Session) synthesize(ctx context.Context, text string, onChunk func() bool) error {
	if s.deps.Synthesizer == nil {
		return nil
	}
	stream, err := s.deps.Synthesizer.Stream(ctx, tts.StreamOptions{Voice: s.cfg.Voice})
	if err != nil {
		return err
	}
	defer stream.Close()

	chunks := SplitSpeech(text)
	for i, chunk := range chunks {
		if err := stream.SendText(chunk, i == len(chunks)-1); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case audio, ok := <-stream.Audio():
			if !ok {
				return stream.Err()
			}
			if onChunk != nil && !onChunk() {
				return nil
			}
			select {
			case s.audioOut <- audio:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// interrupt stops agent speech and flushes everything queued for delivery.
func (s *Session) interrupt(fragment string) {
	s.log.Info("interruption detected", zap.String("fragment", fragment))
	s.governor.Interrupt()
	s.flushOutput()
}

func (s *Session) flushOutput() {
	for {
		select {
		case <-s.audioOut:
		default:
			return
		}
	}
}

func (s *Session) auditTranscript(ctx context.Context, role, text string) {
	line := TranscriptLine{SessionID: s.ID, Role: role, Text: text, At: time.Now().UTC()}
	if err := s.deps.Audit.SaveTranscript(ctx, line); err != nil {
		s.log.Warn("transcript audit failed", zap.Error(err))
	}
}

func (s *Session) auditTurn(ctx context.Context, turn agent.ConversationTurn) {
	if err := s.deps.Audit.SaveTurn(ctx, s.ID, turn); err != nil {
		s.log.Warn("turn audit failed", zap.Error(err))
	}
}
