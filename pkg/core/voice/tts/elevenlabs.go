package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsDefaultWSBase = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"

// ElevenLabsProvider implements Synthesizer on the ElevenLabs
// stream-input websocket API.
type ElevenLabsProvider struct {
	apiKey    string
	wsBaseURL string
}

// NewElevenLabs creates an ElevenLabs TTS provider.
func NewElevenLabs(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:    strings.TrimSpace(apiKey),
		wsBaseURL: elevenLabsDefaultWSBase,
	}
}

// WithWSBaseURL overrides the websocket endpoint, used by tests.
func (e *ElevenLabsProvider) WithWSBaseURL(base string) *ElevenLabsProvider {
	base = strings.TrimSpace(base)
	if base != "" {
		e.wsBaseURL = base
	}
	return e
}

// Name returns the provider identifier.
func (e *ElevenLabsProvider) Name() string { return "elevenlabs" }

// Stream opens a streaming synthesis websocket for the given voice.
func (e *ElevenLabsProvider) Stream(ctx context.Context, opts StreamOptions) (Stream, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	voiceID := strings.TrimSpace(opts.Voice)
	if voiceID == "" {
		return nil, fmt.Errorf("voice id is required")
	}

	wsURL, err := buildElevenLabsWSURL(e.wsBaseURL, voiceID, opts)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("xi-api-key", e.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	// The first frame primes the connection before any real text.
	if err := conn.WriteJSON(map[string]any{
		"text":     " ",
		"voice_id": voiceID,
	}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &elevenLabsStream{
		conn:  conn,
		audio: make(chan []byte, 64),
		done:  make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s, nil
}

type elevenLabsStream struct {
	conn    *websocket.Conn
	audio   chan []byte
	done    chan struct{}
	closed  atomic.Bool
	writeMu sync.Mutex

	errMu sync.Mutex
	err   error
}

// SendText forwards a text chunk, flushing the provider buffer on final.
func (s *elevenLabsStream) SendText(text string, final bool) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	text = strings.TrimSpace(text)
	payload := map[string]any{"text": ""}
	if text != "" {
		payload["text"] = text + " "
	}
	if final {
		payload["flush"] = true
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteJSON(payload)
}

func (s *elevenLabsStream) Audio() <-chan []byte { return s.audio }

func (s *elevenLabsStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *elevenLabsStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	return s.conn.Close()
}

func (s *elevenLabsStream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

type elevenLabsFrame struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
}

func (s *elevenLabsStream) readLoop(ctx context.Context) {
	defer close(s.audio)
	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.setErr(err)
			}
			return
		}
		var frame elevenLabsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err == nil && len(chunk) > 0 {
				select {
				case s.audio <- chunk:
				case <-s.done:
					return
				case <-ctx.Done():
					s.setErr(ctx.Err())
					return
				}
			}
		}
		if frame.IsFinal {
			return
		}
	}
}

func buildElevenLabsWSURL(base, voiceID string, opts StreamOptions) (string, error) {
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid elevenlabs ws url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	model := opts.Model
	if model == "" {
		model = "eleven_flash_v2_5"
	}
	q.Set("model_id", model)
	format := opts.Format
	if format == "" {
		format = "pcm_24000"
	}
	q.Set("output_format", format)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
