// Package protocol defines the websocket frames exchanged on /v1/live.
// Inbound audio travels as binary frames; everything else is JSON text.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame types.
const (
	TypeHello    = "hello"
	TypeReady    = "ready"
	TypeSetMode  = "set_mode"
	TypeContext  = "standup_context"
	TypeNotice   = "notice"
	TypeClose    = "close"
	TypeClientBy = "bye"
)

// DecodeError reports a malformed or unsupported client frame.
type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// ClientHello opens a session: which agent speaks, in which mode, with
// which voice.
type ClientHello struct {
	Type           string `json:"type"`
	AgentID        string `json:"agent_id"`
	Mode           string `json:"mode,omitempty"`
	StandupContext string `json:"standup_context,omitempty"`
	VoiceID        string `json:"voice_id,omitempty"`
	SampleRateHz   int    `json:"sample_rate_hz,omitempty"`
}

// ServerReady acknowledges the hello.
type ServerReady struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Control is any non-hello client text frame.
type Control struct {
	Type    string `json:"type"`
	Mode    string `json:"mode,omitempty"`
	Context string `json:"context,omitempty"`
}

// Notice is a non-fatal server-side event surfaced to the client.
type Notice struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Close carries the machine-readable reason the session ended.
type Close struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// DecodeHello parses and validates the opening frame.
func DecodeHello(data []byte) (ClientHello, *DecodeError) {
	var hello ClientHello
	if err := json.Unmarshal(data, &hello); err != nil {
		return ClientHello{}, badRequest("malformed hello frame", "")
	}
	if hello.Type != TypeHello {
		return ClientHello{}, badRequest("first frame must be hello", "type")
	}
	if strings.TrimSpace(hello.AgentID) == "" {
		return ClientHello{}, badRequest("agent_id is required", "agent_id")
	}
	if hello.SampleRateHz < 0 {
		return ClientHello{}, badRequest("sample_rate_hz must be >= 0", "sample_rate_hz")
	}
	return hello, nil
}

// DecodeControl parses a mid-session client text frame.
func DecodeControl(data []byte) (Control, *DecodeError) {
	var ctl Control
	if err := json.Unmarshal(data, &ctl); err != nil {
		return Control{}, badRequest("malformed control frame", "")
	}
	switch ctl.Type {
	case TypeSetMode, TypeContext, TypeClientBy:
		return ctl, nil
	default:
		return Control{}, badRequest("unknown control type", "type")
	}
}

// NewReady builds the ready acknowledgement.
func NewReady(sessionID string) ServerReady {
	return ServerReady{Type: TypeReady, SessionID: sessionID}
}

// NewNotice builds a notice frame.
func NewNotice(code, message string) Notice {
	return Notice{Type: TypeNotice, Code: code, Message: message}
}

// NewClose builds a close frame.
func NewClose(reason string) Close {
	return Close{Type: TypeClose, Reason: reason}
}
