package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/models"
)

// fakeConn captures frames written to it instead of hitting a socket.
type fakeConn struct {
	mu     sync.Mutex
	frames []models.ServerFrame
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	var frame models.ServerFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) named(event string) []models.ServerFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ServerFrame
	for _, frame := range f.frames {
		if frame.Event == event {
			out = append(out, frame)
		}
	}
	return out
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func testSession(connID, userID, role string, conn *fakeConn) *Session {
	return NewSession(connID, auth.Identity{UserID: userID, Role: role}, conn)
}

// manualTimer is fired by tests instead of the clock.
type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (t *manualTimer) fire() {
	t.fn()
}

type manualTimerFactory struct {
	timers []*manualTimer
}

func (f *manualTimerFactory) New(d time.Duration, fn func()) timerHandle {
	t := &manualTimer{fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *manualTimerFactory) last() *manualTimer {
	if len(f.timers) == 0 {
		return nil
	}
	return f.timers[len(f.timers)-1]
}

func payloadField(frame models.ServerFrame, key string) any {
	data, ok := frame.Data.(map[string]any)
	if !ok {
		return nil
	}
	return data[key]
}
