package latency

import (
	"testing"
	"time"
)

func TestTracker_ReportContainsMarkedCheckpoints(t *testing.T) {
	tr := NewTracker()
	tr.StartTurn()
	tr.Mark(CheckpointSTTComplete)
	tr.Mark(CheckpointGateComplete)

	report := tr.Report()
	if _, ok := report[CheckpointSTTComplete]; !ok {
		t.Error("expected stt_complete in report")
	}
	if _, ok := report[CheckpointGateComplete]; !ok {
		t.Error("expected gate_complete in report")
	}
	if _, ok := report[CheckpointGenerationStart]; ok {
		t.Error("unmarked checkpoint should be absent")
	}
}

func TestTracker_DerivedE2E(t *testing.T) {
	tr := NewTracker()
	tr.StartTurn()

	if _, ok := tr.Report()[TotalE2E]; ok {
		t.Fatal("e2e should be absent before first synthesized byte")
	}

	time.Sleep(5 * time.Millisecond)
	tr.Mark(CheckpointSynthesisFirstByte)

	report := tr.Report()
	e2e, ok := report[TotalE2E]
	if !ok {
		t.Fatal("expected derived e2e latency")
	}
	if e2e < 5*time.Millisecond {
		t.Errorf("e2e %v shorter than elapsed wall time", e2e)
	}
	if e2e != report[CheckpointSynthesisFirstByte] {
		t.Error("e2e should equal the first-byte checkpoint")
	}
}

func TestTracker_StartTurnResets(t *testing.T) {
	tr := NewTracker()
	tr.StartTurn()
	tr.Mark(CheckpointSTTComplete)
	tr.StartTurn()

	if len(tr.Report()) != 0 {
		t.Error("expected empty report after reset")
	}
	if tr.TurnID() != 2 {
		t.Errorf("turn id = %d, want 2", tr.TurnID())
	}
}

func TestTracker_MarkBeforeStartDoesNotPanic(t *testing.T) {
	tr := NewTracker()
	tr.Mark(CheckpointSTTComplete)

	if _, ok := tr.Report()[CheckpointSTTComplete]; !ok {
		t.Error("stray mark should implicitly start a turn")
	}
}
