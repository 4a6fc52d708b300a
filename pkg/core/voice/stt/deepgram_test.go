package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDeepgram_NameAndKeyRequired(t *testing.T) {
	p := NewDeepgram("key")
	if p.Name() != "deepgram" {
		t.Fatalf("name = %q, want deepgram", p.Name())
	}
	if _, err := NewDeepgram("").Stream(context.Background(), StreamOptions{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestDeepgram_StreamRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token key" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("encoding") != "linear16" || q.Get("interim_results") != "true" {
			t.Errorf("unexpected query: %v", q)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Wait for one audio frame, then reply with an interim and a
		// final transcript.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{
			"type":     "Results",
			"is_final": false,
			"channel": map[string]any{
				"alternatives": []map[string]any{{"transcript": "hello"}},
			},
		})
		_ = conn.WriteJSON(map[string]any{
			"type":     "Results",
			"is_final": true,
			"channel": map[string]any{
				"alternatives": []map[string]any{{"transcript": "hello world"}},
			},
		})
		// Drain until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	p := NewDeepgram("key").WithWSBaseURL(wsURL)
	stream, err := p.Stream(context.Background(), StreamOptions{SampleRate: 16000})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	if err := stream.SendAudio([]byte{0, 1, 2, 3}); err != nil {
		t.Fatalf("send audio: %v", err)
	}

	var got []Fragment
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case f, ok := <-stream.Fragments():
			if !ok {
				t.Fatalf("fragments closed early, got %v", got)
			}
			got = append(got, f)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}

	if got[0].Text != "hello" || got[0].IsFinal {
		t.Fatalf("first fragment = %+v", got[0])
	}
	if got[1].Text != "hello world" || !got[1].IsFinal {
		t.Fatalf("second fragment = %+v", got[1])
	}
}

func TestDeepgram_SendAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream, err := NewDeepgram("key").WithWSBaseURL(wsURL).Stream(context.Background(), StreamOptions{})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := stream.SendAudio([]byte{1}); err == nil {
		t.Fatal("expected error sending after close")
	}
}
