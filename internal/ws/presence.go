package ws

import (
	"sync"
	"time"

	"chat-gateway/internal/models"
	"chat-gateway/internal/observability"
)

// timerHandle is the stoppable handle of a pending inactivity timer.
// *time.Timer satisfies it; tests install manual timers.
type timerHandle interface {
	Stop() bool
}

// TimerFactory arms a one-shot timer. Injectable so tests can drive the
// inactivity window without waiting.
type TimerFactory func(d time.Duration, fn func()) timerHandle

func realTimer(d time.Duration, fn func()) timerHandle {
	return time.AfterFunc(d, fn)
}

// Presence tracks the per-connection {active, away} machine. Online is an
// explicit client announcement, never implied by the transport connect;
// offline is the terminal effect of user-offline or disconnect. Timers are
// per-connection: two tabs of one user tick independently.
type Presence struct {
	registry *Registry
	window   time.Duration
	newTimer TimerFactory

	mu     sync.Mutex
	timers map[string]timerHandle
}

// NewPresence builds a tracker over the connection registry.
func NewPresence(registry *Registry, window time.Duration) *Presence {
	return &Presence{
		registry: registry,
		window:   window,
		newTimer: realTimer,
		timers:   make(map[string]timerHandle),
	}
}

// SetTimerFactory swaps the timer source. Test hook.
func (p *Presence) SetTimerFactory(factory TimerFactory) {
	p.newTimer = factory
}

// Online broadcasts the explicit online announcement and arms the window.
func (p *Presence) Online(sess *Session) {
	p.broadcast(sess, models.StatusOnline)
	p.Activity(sess)
}

// Activity resets the inactivity window. Any pending timer is cancelled and a
// fresh one armed; the window is never partially consumed.
func (p *Presence) Activity(sess *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.timers[sess.ID]; ok {
		timer.Stop()
	}

	var handle timerHandle
	handle = p.newTimer(p.window, func() {
		p.mu.Lock()
		if p.timers[sess.ID] != handle {
			// Reset or disconnected after the timer fired.
			p.mu.Unlock()
			return
		}
		delete(p.timers, sess.ID)
		p.mu.Unlock()
		p.broadcast(sess, models.StatusAway)
	})
	p.timers[sess.ID] = handle
}

// Offline handles the explicit user-offline announcement.
func (p *Presence) Offline(sess *Session) {
	p.cancel(sess.ID)
	p.broadcast(sess, models.StatusOffline)
}

// Disconnect cancels any pending timer and broadcasts offline. Broadcast is
// unconditional, even if the last known state was already away.
func (p *Presence) Disconnect(sess *Session) {
	p.cancel(sess.ID)
	p.broadcast(sess, models.StatusOffline)
}

func (p *Presence) cancel(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if timer, ok := p.timers[connID]; ok {
		timer.Stop()
		delete(p.timers, connID)
	}
}

func (p *Presence) broadcast(sess *Session, status string) {
	observability.IncPresenceTransition(status)
	p.registry.BroadcastAll(models.EventUserStatusChanged, models.UserStatusPayload{
		UserID: sess.Identity.UserID,
		Status: status,
	}, sess.ID)
}
