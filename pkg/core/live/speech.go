package live

import (
	"strings"
	"sync"
)

// SpeechBuffer accumulates response text and emits chunks sized for
// low-latency synthesis. A chunk is released on sentence punctuation, or
// at a word-count threshold once a word boundary confirms the last word
// is complete.
type SpeechBuffer struct {
	mu          sync.Mutex
	text        strings.Builder
	minWords    int
	punctuation string
}

// NewSpeechBuffer creates a buffer with default chunking thresholds.
func NewSpeechBuffer() *SpeechBuffer {
	return &SpeechBuffer{
		minWords:    5,
		punctuation: ".,!?",
	}
}

// Add appends a text delta and returns a chunk ready for synthesis, or an
// empty string while more text should be buffered.
func (b *SpeechBuffer) Add(delta string) string {
	if delta == "" {
		return ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	startsAtBoundary := delta[0] == ' ' || delta[0] == '\n'
	prev := b.text.String()
	prevWords := len(strings.Fields(prev))

	b.text.WriteString(delta)
	content := b.text.String()

	if strings.ContainsAny(delta, b.punctuation) {
		last := strings.LastIndexAny(content, b.punctuation)
		if last >= 0 {
			chunk := strings.TrimSpace(content[:last+1])
			rest := strings.TrimSpace(content[last+1:])
			b.text.Reset()
			if rest != "" {
				b.text.WriteString(rest)
			}
			return chunk
		}
	}

	if prevWords >= b.minWords && startsAtBoundary {
		chunk := strings.TrimSpace(prev)
		b.text.Reset()
		b.text.WriteString(strings.TrimLeft(delta, " \n"))
		return chunk
	}

	return ""
}

// Flush returns any remaining buffered text and resets the buffer.
func (b *SpeechBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := strings.TrimSpace(b.text.String())
	b.text.Reset()
	return out
}

// Reset discards buffered text without returning it.
func (b *SpeechBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.Reset()
}

// SplitSpeech breaks a complete response into synthesis-sized chunks by
// feeding it word by word through a SpeechBuffer.
func SplitSpeech(text string) []string {
	b := NewSpeechBuffer()
	var chunks []string
	for i, word := range strings.Fields(text) {
		delta := word
		if i > 0 {
			delta = " " + word
		}
		if chunk := b.Add(delta); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	if tail := b.Flush(); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}
