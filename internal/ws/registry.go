package ws

import "sync"

// Registry is the flat table of live connections. Presence broadcasts go to
// every connection here; call signaling targets the per-user index. Owned by
// main and injected, never a package global.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // conn id -> session
	byUser   map[string]map[string]*Session // user id -> conn id -> session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
	}
}

// Add registers a session.
func (r *Registry) Add(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	userID := sess.Identity.UserID
	if _, ok := r.byUser[userID]; !ok {
		r.byUser[userID] = make(map[string]*Session)
	}
	r.byUser[userID][sess.ID] = sess
}

// Remove drops a session from the table and the user index.
func (r *Registry) Remove(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sess.ID)
	userID := sess.Identity.UserID
	if conns, ok := r.byUser[userID]; ok {
		delete(conns, sess.ID)
		if len(conns) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// BroadcastAll sends an event to every connection except the excluded one.
// Presence is global, not room-scoped.
func (r *Registry) BroadcastAll(event string, data any, excludeConnID string) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		if id == excludeConnID {
			continue
		}
		targets = append(targets, sess)
	}
	r.mu.RUnlock()

	for _, sess := range targets {
		_ = sess.Send(event, data)
	}
}

// SendToUser delivers an event to every connection of one user. Forwarding is
// fire-and-forget; a missing or lost target is not an error.
func (r *Registry) SendToUser(userID string, event string, data any) {
	r.mu.RLock()
	conns := r.byUser[userID]
	targets := make([]*Session, 0, len(conns))
	for _, sess := range conns {
		targets = append(targets, sess)
	}
	r.mu.RUnlock()

	for _, sess := range targets {
		_ = sess.Send(event, data)
	}
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
