package ws

import "sync"

// Rooms multiplexes conversation-scoped broadcast groups. Membership is
// many-to-many and lives only as long as a member connection; a room is
// recreated implicitly on the next join.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Session // room id -> conn id -> session
	byConn map[string]map[string]bool     // conn id -> room id set
}

// NewRooms creates an empty multiplexer.
func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]map[string]*Session),
		byConn: make(map[string]map[string]bool),
	}
}

// Join adds a connection to a room. Joining twice is a no-op.
func (r *Rooms) Join(sess *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[string]*Session)
	}
	r.rooms[roomID][sess.ID] = sess
	if _, ok := r.byConn[sess.ID]; !ok {
		r.byConn[sess.ID] = make(map[string]bool)
	}
	r.byConn[sess.ID][roomID] = true
}

// Broadcast sends an event to every member of a room, skipping the excluded
// connection when sender exclusion applies to the event.
func (r *Rooms) Broadcast(roomID string, event string, data any, excludeConnID string) {
	r.mu.RLock()
	members := r.rooms[roomID]
	targets := make([]*Session, 0, len(members))
	for id, sess := range members {
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

// Sweep removes a connection from every room it joined. Called on disconnect;
// there is no client-visible leave.
func (r *Rooms) Sweep(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.byConn[connID] {
		if members, ok := r.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.rooms, roomID)
			}
		}
	}
	delete(r.byConn, connID)
}

// MemberCount reports the live membership of a room.
func (r *Rooms) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
