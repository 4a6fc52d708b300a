// Package config loads the gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReasonerKind selects the reasoning provider backing sessions.
type ReasonerKind string

const (
	ReasonerOpenAI ReasonerKind = "openai"
	ReasonerGemini ReasonerKind = "gemini"
)

type Config struct {
	Addr string

	DatabaseURL string
	// MigrateOnStart applies pending schema migrations before serving.
	MigrateOnStart bool

	// Provider credentials.
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	OpenAIAPIKey     string
	GeminiAPIKey     string

	// Reasoner selects which reasoning provider sessions use.
	Reasoner ReasonerKind

	// DefaultVoiceID is the synthesis voice when the client sends none.
	DefaultVoiceID string

	// Session policy knobs (see live.Config).
	NoiseFloorChars   int
	InterruptMinChars int
	PacingInterview   time.Duration
	PacingStandup     time.Duration
	PacingGeneral     time.Duration
	AudioInQueue      int
	AudioOutQueue     int
	MemoryWindow      int
	SampleRate        int
	EnablePlanner     bool

	// Live websocket limits.
	MaxAudioFrameBytes int
	HandshakeTimeout   time.Duration
	WSWriteTimeout     time.Duration
	WSPingInterval     time.Duration

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration

	// Logging.
	LogLevel string
	LogFile  string
}

// LoadFromEnv builds a Config from STANDIN_* environment variables.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("STANDIN_ADDR", ":8080"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("STANDIN_DATABASE_URL")),
		MigrateOnStart:      envBoolOr("STANDIN_MIGRATE_ON_START", true),
		DeepgramAPIKey:      strings.TrimSpace(os.Getenv("STANDIN_DEEPGRAM_API_KEY")),
		ElevenLabsAPIKey:    strings.TrimSpace(os.Getenv("STANDIN_ELEVENLABS_API_KEY")),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("STANDIN_OPENAI_API_KEY")),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("STANDIN_GEMINI_API_KEY")),
		Reasoner:            ReasonerKind(envOr("STANDIN_REASONER", string(ReasonerOpenAI))),
		DefaultVoiceID:      envOr("STANDIN_DEFAULT_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		NoiseFloorChars:     envIntOr("STANDIN_NOISE_FLOOR_CHARS", 2),
		InterruptMinChars:   envIntOr("STANDIN_INTERRUPT_MIN_CHARS", 4),
		PacingInterview:     envDurationOr("STANDIN_PACING_INTERVIEW", 600*time.Millisecond),
		PacingStandup:       envDurationOr("STANDIN_PACING_STANDUP", 200*time.Millisecond),
		PacingGeneral:       envDurationOr("STANDIN_PACING_GENERAL", 400*time.Millisecond),
		AudioInQueue:        envIntOr("STANDIN_AUDIO_IN_QUEUE", 256),
		AudioOutQueue:       envIntOr("STANDIN_AUDIO_OUT_QUEUE", 64),
		MemoryWindow:        envIntOr("STANDIN_MEMORY_WINDOW", 10),
		SampleRate:          envIntOr("STANDIN_SAMPLE_RATE", 16000),
		EnablePlanner:       envBoolOr("STANDIN_ENABLE_PLANNER", false),
		MaxAudioFrameBytes:  envIntOr("STANDIN_MAX_AUDIO_FRAME_BYTES", 8192),
		HandshakeTimeout:    envDurationOr("STANDIN_HANDSHAKE_TIMEOUT", 5*time.Second),
		WSWriteTimeout:      envDurationOr("STANDIN_WS_WRITE_TIMEOUT", 5*time.Second),
		WSPingInterval:      envDurationOr("STANDIN_WS_PING_INTERVAL", 20*time.Second),
		ReadHeaderTimeout:   envDurationOr("STANDIN_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("STANDIN_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		LogLevel:            envOr("STANDIN_LOG_LEVEL", "info"),
		LogFile:             strings.TrimSpace(os.Getenv("STANDIN_LOG_FILE")),
	}

	switch cfg.Reasoner {
	case ReasonerOpenAI, ReasonerGemini:
	default:
		return Config{}, fmt.Errorf("STANDIN_REASONER must be one of openai|gemini")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("STANDIN_DATABASE_URL must be set")
	}
	if cfg.NoiseFloorChars < 0 {
		return Config{}, fmt.Errorf("STANDIN_NOISE_FLOOR_CHARS must be >= 0")
	}
	if cfg.InterruptMinChars <= 0 {
		return Config{}, fmt.Errorf("STANDIN_INTERRUPT_MIN_CHARS must be > 0")
	}
	if cfg.AudioInQueue <= 0 || cfg.AudioOutQueue <= 0 {
		return Config{}, fmt.Errorf("audio queue sizes must be > 0")
	}
	if cfg.MemoryWindow <= 0 {
		return Config{}, fmt.Errorf("STANDIN_MEMORY_WINDOW must be > 0")
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("STANDIN_SAMPLE_RATE must be > 0")
	}
	if cfg.MaxAudioFrameBytes <= 0 {
		return Config{}, fmt.Errorf("STANDIN_MAX_AUDIO_FRAME_BYTES must be > 0")
	}
	if cfg.HandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("STANDIN_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("STANDIN_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("STANDIN_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
