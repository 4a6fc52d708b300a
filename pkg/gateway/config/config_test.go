package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("STANDIN_DATABASE_URL", "postgres://localhost/standin")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.Reasoner != ReasonerOpenAI {
		t.Fatalf("reasoner = %q", cfg.Reasoner)
	}
	if cfg.PacingInterview != 600*time.Millisecond {
		t.Fatalf("pacing = %v", cfg.PacingInterview)
	}
	if cfg.InterruptMinChars != 4 {
		t.Fatalf("interrupt chars = %d", cfg.InterruptMinChars)
	}
	if !cfg.MigrateOnStart {
		t.Fatal("migrate on start should default to true")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STANDIN_DATABASE_URL", "postgres://localhost/standin")
	t.Setenv("STANDIN_REASONER", "gemini")
	t.Setenv("STANDIN_PACING_STANDUP", "50ms")
	t.Setenv("STANDIN_ENABLE_PLANNER", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Reasoner != ReasonerGemini {
		t.Fatalf("reasoner = %q", cfg.Reasoner)
	}
	if cfg.PacingStandup != 50*time.Millisecond {
		t.Fatalf("pacing = %v", cfg.PacingStandup)
	}
	if !cfg.EnablePlanner {
		t.Fatal("planner should be enabled")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("STANDIN_DATABASE_URL", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("missing database url should fail")
	}

	t.Setenv("STANDIN_DATABASE_URL", "postgres://localhost/standin")
	t.Setenv("STANDIN_REASONER", "llama")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("unknown reasoner should fail")
	}
}
