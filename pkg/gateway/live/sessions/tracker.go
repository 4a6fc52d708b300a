// Package sessions tracks live websocket sessions so the server can
// notify and drain them on shutdown. The tracker is an explicit registry
// handed to the handlers, never ambient global state.
package sessions

import (
	"context"
	"sync"
)

// Handle is what a session registers: a way to cancel it and a way to
// send it an out-of-band notice.
type Handle struct {
	Cancel func()
	Notify func(code, message string) error
}

type entry struct {
	handle Handle
	once   sync.Once
}

// Tracker is a registry of running sessions with a defined lifecycle:
// register on connect, unregister on disconnect.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*entry
	wg       sync.WaitGroup
}

// NewTracker creates an empty registry.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*entry)}
}

// Register adds a session and returns its unregister function. A second
// registration under the same id cancels the bookkeeping for the first.
func (t *Tracker) Register(sessionID string, h Handle) (unregister func()) {
	e := &entry{handle: h}

	t.mu.Lock()
	old := t.sessions[sessionID]
	t.sessions[sessionID] = e
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(sessionID, old)
	}
	return func() { t.unregister(sessionID, e) }
}

func (t *Tracker) unregister(sessionID string, e *entry) {
	e.once.Do(func() {
		t.mu.Lock()
		if t.sessions[sessionID] == e {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count returns the number of registered sessions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// NotifyAll sends a notice to every session, returning how many were sent.
func (t *Tracker) NotifyAll(code, message string) (sent int) {
	var notifies []func(code, message string) error
	t.mu.Lock()
	for _, e := range t.sessions {
		if e.handle.Notify != nil {
			notifies = append(notifies, e.handle.Notify)
		}
	}
	t.mu.Unlock()

	for _, notify := range notifies {
		_ = notify(code, message)
		sent++
	}
	return sent
}

// CancelAll cancels every session, returning how many were cancelled.
func (t *Tracker) CancelAll() (cancelled int) {
	var cancels []func()
	t.mu.Lock()
	for _, e := range t.sessions {
		if e.handle.Cancel != nil {
			cancels = append(cancels, e.handle.Cancel)
		}
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		cancelled++
	}
	return cancelled
}

// Wait blocks until every registered session has unregistered, or the
// context ends. Reports whether the drain completed.
func (t *Tracker) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
