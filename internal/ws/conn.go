package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/models"
	"chat-gateway/internal/observability"
)

// frameWriter is the slice of *websocket.Conn the gateway writes through.
// Narrowed to an interface so broadcasts can be observed in tests.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one authenticated gateway connection. The identity is set at
// handshake and immutable afterwards.
type Session struct {
	ID          string
	Identity    auth.Identity
	ConnectedAt time.Time

	conn    frameWriter
	writeMu sync.Mutex
}

// NewSession wraps an upgraded connection.
func NewSession(id string, identity auth.Identity, conn frameWriter) *Session {
	return &Session{
		ID:          id,
		Identity:    identity,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// Send writes one server frame. Writes are serialized per connection because
// broadcasts run on multiple goroutines.
func (s *Session) Send(event string, data any) error {
	payload, err := json.Marshal(models.ServerFrame{Event: event, Data: data})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error conn=%s: %v", s.ID, err)
		observability.IncBroadcastError()
		return err
	}
	return nil
}

// Close closes the underlying transport.
func (s *Session) Close() error {
	return s.conn.Close()
}
