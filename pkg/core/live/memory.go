package live

import (
	"strings"
	"sync"

	"github.com/standin-ai/standin/pkg/core/reason"
)

// Memory is the session's sliding window of recent interactions, used by
// the planner. Older turns fall off the front once the window is full.
type Memory struct {
	mu     sync.Mutex
	turns  []reason.Message
	window int
}

// NewMemory creates a working memory holding at most window interactions.
func NewMemory(window int) *Memory {
	if window <= 0 {
		window = 10
	}
	return &Memory{window: window}
}

// Add appends one interaction, evicting the oldest if the window is full.
func (m *Memory) Add(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, reason.Message{Role: role, Content: content})
	if len(m.turns) > m.window {
		m.turns = m.turns[1:]
	}
}

// History returns a copy of the window, oldest first.
func (m *Memory) History() []reason.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]reason.Message, len(m.turns))
	copy(out, m.turns)
	return out
}

// ContextString renders the window as "role: content" lines for prompts.
func (m *Memory) ContextString() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	for _, t := range m.turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Len returns the number of held interactions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}
