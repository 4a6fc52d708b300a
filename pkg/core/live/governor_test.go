package live

import (
	"testing"
	"time"
)

func TestGovernor_AdmitSpeechRequest(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	if !g.AdmitSpeechRequest() {
		t.Fatal("idle governor should admit speech")
	}
	if g.State() != TurnPreSpeech {
		t.Fatalf("state = %v, want PRE_SPEECH", g.State())
	}
	if g.AdmitSpeechRequest() {
		t.Fatal("non-idle governor should refuse admission")
	}
}

func TestGovernor_SpeakingRequiresAdmission(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	if g.StartSpeaking() {
		t.Fatal("speaking without admission should be refused")
	}
	g.AdmitSpeechRequest()
	if !g.StartSpeaking() {
		t.Fatal("speaking after admission should be allowed")
	}
	if g.State() != TurnSpeaking {
		t.Fatalf("state = %v, want SPEAKING", g.State())
	}
}

func TestGovernor_ShouldInterrupt(t *testing.T) {
	g := NewGovernor(GovernorConfig{InterruptMinChars: 4})

	if g.ShouldInterrupt("wait stop") {
		t.Fatal("no interrupt while not speaking")
	}

	g.AdmitSpeechRequest()
	g.StartSpeaking()

	if g.ShouldInterrupt("um") {
		t.Fatal("short noise should not interrupt")
	}
	if g.ShouldInterrupt("  hm  ") {
		t.Fatal("whitespace-padded noise should not interrupt")
	}
	if !g.ShouldInterrupt("wait stop") {
		t.Fatal("substantial speech should interrupt")
	}
}

func TestGovernor_InterruptAndClear(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	g.AdmitSpeechRequest()
	g.StartSpeaking()

	g.Interrupt()
	if g.State() != TurnInterrupted || !g.Interrupted() {
		t.Fatalf("state = %v after interrupt", g.State())
	}

	g.ClearForNextTurn()
	if g.State() != TurnIdle {
		t.Fatalf("state = %v after clear", g.State())
	}
	g.ClearForNextTurn()
	if g.State() != TurnIdle {
		t.Fatal("clear must be idempotent")
	}
}

func TestGovernor_InterruptWhileIdleIsNoop(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	g.Interrupt()
	if g.State() != TurnIdle {
		t.Fatalf("state = %v, want IDLE", g.State())
	}
}

func TestGovernor_FinishSpeakingYields(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	g.AdmitSpeechRequest()
	g.StartSpeaking()
	g.FinishSpeaking()
	if g.State() != TurnYielding {
		t.Fatalf("state = %v, want YIELDING", g.State())
	}
}

func TestGovernor_PacingDelay(t *testing.T) {
	g := NewGovernor(GovernorConfig{
		PacingInterview: 600 * time.Millisecond,
		PacingStandup:   200 * time.Millisecond,
		PacingGeneral:   400 * time.Millisecond,
	})

	if d := g.PacingDelay("interview", false); d != 600*time.Millisecond {
		t.Fatalf("interview pacing = %v", d)
	}
	if d := g.PacingDelay("standup", false); d != 200*time.Millisecond {
		t.Fatalf("standup pacing = %v", d)
	}
	if d := g.PacingDelay("general", false); d != 400*time.Millisecond {
		t.Fatalf("general pacing = %v", d)
	}
	if d := g.PacingDelay("interview", true); d != 0 {
		t.Fatalf("fast loop pacing = %v, want 0", d)
	}
}
