package handlers

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn serializes writes to a websocket connection. Gorilla connections
// allow one concurrent writer; the delivery loop, the read pump's notices,
// and the ping loop all write through this.
type wsConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &wsConn{conn: conn, writeTimeout: writeTimeout}
}

func (w *wsConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) WriteBinary(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (w *wsConn) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
}

func (w *wsConn) pingLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := w.Ping(); err != nil {
				return
			}
		}
	}
}

func (w *wsConn) CloseNormal(reason string) {
	w.closeWith(websocket.CloseNormalClosure, reason)
}

func (w *wsConn) ClosePolicy(reason string) {
	w.closeWith(websocket.ClosePolicyViolation, reason)
}

func (w *wsConn) closeWith(code int, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(2*time.Second))
}
