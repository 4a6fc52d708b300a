package tts

import "context"

// StreamOptions configures a synthesis stream.
type StreamOptions struct {
	Voice      string
	Model      string
	Format     string
	SampleRate int
}

// Synthesizer converts text into audio over a streaming connection.
type Synthesizer interface {
	Name() string
	Stream(ctx context.Context, opts StreamOptions) (Stream, error)
}

// Stream is a live synthesis connection. Text is sent incrementally;
// audio chunks arrive on Audio until the stream finishes or is closed.
type Stream interface {
	// SendText forwards a text chunk. final flushes the provider's
	// internal buffer so trailing audio is emitted promptly.
	SendText(text string, final bool) error
	Audio() <-chan []byte
	Err() error
	Close() error
}
