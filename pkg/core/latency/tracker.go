// Package latency provides per-turn checkpoint timing for the voice pipeline.
package latency

import (
	"sync"
	"time"
)

// Well-known checkpoint names recorded by the orchestrator.
const (
	CheckpointSTTComplete        = "stt_complete"
	CheckpointGateComplete       = "gate_complete"
	CheckpointGenerationStart    = "generation_start"
	CheckpointSynthesisFirstByte = "synthesis_first_byte"
)

// TotalE2E is the derived report key: turn start to first synthesized byte.
const TotalE2E = "total_e2e"

// Tracker records named checkpoints for one conversational turn at a time.
// It is observability-only: it never fails and never drives control flow.
type Tracker struct {
	mu          sync.Mutex
	turnID      int
	start       time.Time
	checkpoints map[string]time.Duration
}

// NewTracker creates an empty tracker. StartTurn must be called before Mark,
// but a stray Mark before the first turn simply starts one.
func NewTracker() *Tracker {
	return &Tracker{checkpoints: make(map[string]time.Duration)}
}

// StartTurn resets all checkpoints and begins timing a new turn.
func (t *Tracker) StartTurn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turnID++
	t.start = time.Now()
	t.checkpoints = make(map[string]time.Duration)
}

// Mark records the elapsed time since the turn started under the given name.
// Re-marking a name overwrites the previous value.
func (t *Tracker) Mark(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start.IsZero() {
		t.turnID++
		t.start = time.Now()
		t.checkpoints = make(map[string]time.Duration)
	}
	t.checkpoints[name] = time.Since(t.start)
}

// TurnID returns the current turn counter.
func (t *Tracker) TurnID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.turnID
}

// Report returns a copy of the recorded checkpoints plus the derived
// end-to-end latency when the first synthesized byte was marked. Checkpoints
// that were never marked are absent.
func (t *Tracker) Report() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := make(map[string]time.Duration, len(t.checkpoints)+1)
	for name, d := range t.checkpoints {
		report[name] = d
	}
	if d, ok := t.checkpoints[CheckpointSynthesisFirstByte]; ok {
		report[TotalE2E] = d
	}
	return report
}
