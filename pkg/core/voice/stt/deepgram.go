package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const deepgramDefaultWSBase = "wss://api.deepgram.com/v1/listen"

// DeepgramProvider implements Transcriber on Deepgram's realtime API.
type DeepgramProvider struct {
	apiKey    string
	wsBaseURL string
}

// NewDeepgram creates a Deepgram STT provider.
func NewDeepgram(apiKey string) *DeepgramProvider {
	return &DeepgramProvider{apiKey: apiKey, wsBaseURL: deepgramDefaultWSBase}
}

// WithWSBaseURL overrides the websocket endpoint, used by tests.
func (d *DeepgramProvider) WithWSBaseURL(base string) *DeepgramProvider {
	if base != "" {
		d.wsBaseURL = base
	}
	return d
}

// Name returns the provider identifier.
func (d *DeepgramProvider) Name() string { return "deepgram" }

// Stream opens a realtime transcription websocket.
func (d *DeepgramProvider) Stream(ctx context.Context, opts StreamOptions) (Stream, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}

	u, err := url.Parse(d.wsBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket url: %w", err)
	}

	q := u.Query()
	model := opts.Model
	if model == "" {
		model = "nova-2"
	}
	q.Set("model", model)

	encoding := opts.Encoding
	if encoding == "" {
		encoding = "linear16"
	}
	q.Set("encoding", encoding)

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	q.Set("sample_rate", strconv.Itoa(sampleRate))

	channels := opts.Channels
	if channels == 0 {
		channels = 1
	}
	q.Set("channels", strconv.Itoa(channels))

	language := opts.Language
	if language == "" {
		language = "en"
	}
	q.Set("language", language)

	q.Set("smart_format", "true")
	q.Set("interim_results", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &deepgramStream{
		conn:      conn,
		fragments: make(chan Fragment, 100),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go s.readLoop()
	return s, nil
}

type deepgramStream struct {
	conn      *websocket.Conn
	fragments chan Fragment
	done      chan struct{}
	closed    atomic.Bool
	writeMu   sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

type deepgramResponse struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (s *deepgramStream) readLoop() {
	defer func() {
		close(s.fragments)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		var msg deepgramResponse
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
			continue
		}
		text := msg.Channel.Alternatives[0].Transcript
		if text == "" {
			continue
		}

		select {
		case s.fragments <- Fragment{Text: text, IsFinal: msg.IsFinal}:
		case <-s.ctx.Done():
			return
		}
	}
}

// SendAudio pushes a raw audio chunk to Deepgram.
func (s *deepgramStream) SendAudio(data []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Fragments returns the channel of transcription updates.
func (s *deepgramStream) Fragments() <-chan Fragment {
	return s.fragments
}

// Close signals end of audio and tears the websocket down.
func (s *deepgramStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	s.writeMu.Unlock()
	s.cancel()
	return s.conn.Close()
}
