package live

import (
	"strings"
	"sync"
	"time"
)

// TurnState tracks who may emit audio at any moment. Exactly one instance
// exists per session and only the processing activity mutates it.
type TurnState int

const (
	// TurnIdle means nobody is speaking and no turn is queued.
	TurnIdle TurnState = iota
	// TurnPlanning means a speech request was admitted and a decision is
	// being computed.
	TurnPlanning
	// TurnPreSpeech means a response exists and pacing is in progress.
	TurnPreSpeech
	// TurnSpeaking means response audio is flowing to the transport.
	TurnSpeaking
	// TurnInterrupted means the user spoke over the agent.
	TurnInterrupted
	// TurnYielding means the agent finished and is handing the floor back.
	TurnYielding
)

// String returns the state label.
func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "IDLE"
	case TurnPlanning:
		return "PLANNING"
	case TurnPreSpeech:
		return "PRE_SPEECH"
	case TurnSpeaking:
		return "SPEAKING"
	case TurnInterrupted:
		return "INTERRUPTED"
	case TurnYielding:
		return "YIELDING"
	default:
		return "UNKNOWN"
	}
}

// GovernorConfig holds the governor's tunable thresholds.
type GovernorConfig struct {
	// InterruptMinChars is the minimum trimmed fragment length that
	// counts as substantial speech while the agent is speaking.
	InterruptMinChars int

	PacingInterview time.Duration
	PacingStandup   time.Duration
	PacingGeneral   time.Duration
}

// Governor is the turn-taking state machine. All transitions are pure
// in-memory changes; an invalid transition is a no-op, never a panic.
type Governor struct {
	mu    sync.Mutex
	state TurnState
	cfg   GovernorConfig
}

// NewGovernor creates a governor in the idle state.
func NewGovernor(cfg GovernorConfig) *Governor {
	if cfg.InterruptMinChars <= 0 {
		cfg.InterruptMinChars = 4
	}
	if cfg.PacingInterview <= 0 {
		cfg.PacingInterview = 600 * time.Millisecond
	}
	if cfg.PacingStandup <= 0 {
		cfg.PacingStandup = 200 * time.Millisecond
	}
	if cfg.PacingGeneral <= 0 {
		cfg.PacingGeneral = 400 * time.Millisecond
	}
	return &Governor{cfg: cfg}
}

// State returns the current turn state.
func (g *Governor) State() TurnState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// AdmitSpeechRequest moves IDLE through PLANNING to PRE_SPEECH and reports
// whether the agent may proceed to speak. Any other starting state refuses.
func (g *Governor) AdmitSpeechRequest() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != TurnIdle {
		return false
	}
	g.state = TurnPlanning
	g.state = TurnPreSpeech
	return true
}

// StartSpeaking moves PRE_SPEECH to SPEAKING. Refused from any other state,
// so audio can only flow after a successful admission.
func (g *Governor) StartSpeaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != TurnPreSpeech {
		return false
	}
	g.state = TurnSpeaking
	return true
}

// FinishSpeaking yields the floor after a completed response.
func (g *Governor) FinishSpeaking() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == TurnSpeaking {
		g.state = TurnYielding
	}
}

// ShouldInterrupt reports whether an incoming fragment is substantial
// enough to cut off agent speech. Short noise never triggers.
func (g *Governor) ShouldInterrupt(fragment string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != TurnSpeaking {
		return false
	}
	return len(strings.TrimSpace(fragment)) > g.cfg.InterruptMinChars
}

// Interrupt marks the turn interrupted. No-op unless the agent currently
// holds the floor.
func (g *Governor) Interrupt() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case TurnSpeaking, TurnPreSpeech, TurnPlanning:
		g.state = TurnInterrupted
	}
}

// Interrupted reports whether the current turn was cut off.
func (g *Governor) Interrupted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == TurnInterrupted
}

// ClearForNextTurn resets to IDLE. Idempotent.
func (g *Governor) ClearForNextTurn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = TurnIdle
}

// PacingDelay returns the artificial pause inserted before speaking.
// Fast-loop turns bypass pacing entirely.
func (g *Governor) PacingDelay(mode string, fastLoop bool) time.Duration {
	if fastLoop {
		return 0
	}
	switch mode {
	case "interview":
		return g.cfg.PacingInterview
	case "standup":
		return g.cfg.PacingStandup
	default:
		return g.cfg.PacingGeneral
	}
}
