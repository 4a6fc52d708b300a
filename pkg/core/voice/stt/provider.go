// Package stt provides the speech-to-text contract for live sessions.
package stt

import "context"

// Fragment is a streaming transcription update. Only fragments tagged final
// are treated as turn triggers by the orchestrator.
type Fragment struct {
	Text    string
	IsFinal bool
}

// StreamOptions configures a live transcription stream.
type StreamOptions struct {
	Model      string // provider-specific model identifier
	Language   string // ISO language code, default "en"
	Encoding   string // audio encoding, default "linear16"
	SampleRate int    // audio sample rate in Hz
	Channels   int    // 1 for mono
}

// Transcriber is the speech-to-text provider contract.
type Transcriber interface {
	// Name returns the provider identifier.
	Name() string

	// Stream opens a live transcription session. Audio is pushed with
	// SendAudio and fragments are read from Fragments.
	Stream(ctx context.Context, opts StreamOptions) (Stream, error)
}

// Stream is one live transcription session.
type Stream interface {
	// SendAudio pushes a chunk of raw audio to the provider.
	SendAudio(data []byte) error

	// Fragments returns the channel of transcription updates. It is closed
	// when the provider ends the stream.
	Fragments() <-chan Fragment

	// Close tears the session down. Idempotent.
	Close() error
}
