package live

import "time"

// SessionState is the session-level lifecycle state.
type SessionState int

const (
	// StateInitializing is the state before the agent record is loaded.
	StateInitializing SessionState = iota
	// StateDisclosing is the one-time AI disclosure announcement.
	StateDisclosing
	// StateListening is when the session is draining transcripts.
	StateListening
	// StateProcessing is when a turn decision is in flight.
	StateProcessing
	// StateSpeaking is when response audio is being delivered.
	StateSpeaking
	// StateClosed is terminal.
	StateClosed
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateDisclosing:
		return "DISCLOSING"
	case StateListening:
		return "LISTENING"
	case StateProcessing:
		return "PROCESSING"
	case StateSpeaking:
		return "SPEAKING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the session policy knobs. Every heuristic threshold lives
// here so it can be tuned and tested independently.
type Config struct {
	// NoiseFloorChars is the transcript length at or below which a
	// finalized fragment is discarded as noise.
	NoiseFloorChars int `json:"noise_floor_chars"`

	// InterruptMinChars is the transcript length above which user speech
	// during agent speech counts as an interruption.
	InterruptMinChars int `json:"interrupt_min_chars"`

	// Pacing delays inserted before the agent speaks, per mode. Skipped
	// entirely on fast-loop turns.
	PacingInterview time.Duration `json:"pacing_interview"`
	PacingStandup   time.Duration `json:"pacing_standup"`
	PacingGeneral   time.Duration `json:"pacing_general"`

	// AudioInQueue is the inbound audio queue depth. Chunks arriving
	// while the queue is full are dropped.
	AudioInQueue int `json:"audio_in_queue"`

	// AudioOutQueue is the outbound audio queue depth.
	AudioOutQueue int `json:"audio_out_queue"`

	// MemoryWindow is the number of recent interactions kept in working
	// memory for the planner.
	MemoryWindow int `json:"memory_window"`

	// SampleRate is the inbound audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Voice is the synthesis voice id.
	Voice string `json:"voice"`

	// EnablePlanner runs the structured planning step before each turn;
	// a "listen" plan skips the spoken response.
	EnablePlanner bool `json:"enable_planner"`

	// ModeOverride, when set, replaces the agent record's default mode
	// for this session.
	ModeOverride string `json:"mode_override,omitempty"`

	// StandupContext is the ephemeral meeting notes installed at start.
	StandupContext string `json:"standup_context,omitempty"`
}

// DefaultConfig returns a Config with standard thresholds.
func DefaultConfig() Config {
	return Config{
		NoiseFloorChars:   2,
		InterruptMinChars: 4,
		PacingInterview:   600 * time.Millisecond,
		PacingStandup:     200 * time.Millisecond,
		PacingGeneral:     400 * time.Millisecond,
		AudioInQueue:      256,
		AudioOutQueue:     64,
		MemoryWindow:      10,
		SampleRate:        16000,
	}
}
