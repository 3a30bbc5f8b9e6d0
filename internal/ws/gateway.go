package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/models"
	"chat-gateway/internal/observability"
	"chat-gateway/internal/telemetry"
)

// Gateway wires authentication, presence, rooms, mutations and signaling
// together per connection.
type Gateway struct {
	authenticator *auth.Authenticator
	registry      *Registry
	rooms         *Rooms
	presence      *Presence
	coordinator   *Coordinator
	relay         *Relay
	reporter      *telemetry.Reporter
	upgrader      websocket.Upgrader
}

// NewGateway constructs the Gateway. The upgrader accepts only the configured
// origin, plus same-origin requests that carry no Origin header.
func NewGateway(authenticator *auth.Authenticator, registry *Registry, rooms *Rooms, presence *Presence, coordinator *Coordinator, relay *Relay, reporter *telemetry.Reporter, allowedOrigin string) *Gateway {
	return &Gateway{
		authenticator: authenticator,
		registry:      registry,
		rooms:         rooms,
		presence:      presence,
		coordinator:   coordinator,
		relay:         relay,
		reporter:      reporter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Handle authenticates the handshake, upgrades the connection and starts the
// read loop. A connection that fails verification never reaches a handler.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-gateway/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := g.authenticator.Authenticate(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := NewSession(uuid.NewString(), identity, conn)
	g.registry.Add(sess)
	observability.IncWSActive()
	log.Printf("ws connect conn=%s user=%s ip=%s", sess.ID, identity.UserID, observability.IPFromRequest(c.Request))

	// The request context ends with the handshake; the read loop outlives it.
	go g.readLoop(context.WithoutCancel(ctx), sess, conn)
}

func (g *Gateway) readLoop(ctx context.Context, sess *Session, conn *websocket.Conn) {
	defer g.teardown(ctx, sess)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error conn=%s: %v", sess.ID, err)
			}
			return
		}
		g.Dispatch(ctx, sess, raw)
	}
}

func (g *Gateway) teardown(ctx context.Context, sess *Session) {
	g.presence.Disconnect(sess)
	g.rooms.Sweep(sess.ID)
	g.registry.Remove(sess)
	observability.DecWSActive()
	_ = sess.Close()
	log.Printf("ws disconnect conn=%s user=%s after=%s", sess.ID, sess.Identity.UserID, time.Since(sess.ConnectedAt))
}

// Dispatch routes one inbound frame to its handler. Handler faults are
// isolated: a panic or store error is logged and reported, and the
// connection keeps serving.
func (g *Gateway) Dispatch(ctx context.Context, sess *Session, raw []byte) {
	var frame models.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("malformed frame conn=%s: %v", sess.ID, err)
		observability.IncWSEvent("malformed", "error")
		return
	}

	switch frame.Event {
	case models.EventJoinConversation:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.JoinConversationPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.rooms.Join(sess, p.RoomID)
			return nil
		})

	case models.EventSendMessage:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.SendMessagePayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.presence.Activity(sess)
			// Forwarded verbatim; persistence belongs to the CRUD layer.
			g.rooms.Broadcast(p.ConversationID, models.EventReceiveMessage, json.RawMessage(frame.Data), sess.ID)
			return nil
		})

	case models.EventTyping:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.TypingPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.presence.Activity(sess)
			g.rooms.Broadcast(p.RoomID, models.EventTyping, map[string]any{
				"roomId":   p.RoomID,
				"userId":   sess.Identity.UserID,
				"isTyping": p.IsTyping,
			}, sess.ID)
			return nil
		})

	case models.EventUserOnline:
		g.safely(ctx, sess, frame.Event, func() error {
			g.presence.Online(sess)
			return nil
		})

	case models.EventUserOffline:
		g.safely(ctx, sess, frame.Event, func() error {
			g.presence.Offline(sess)
			return nil
		})

	case models.EventMessageDelivered:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.MessageDeliveredPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			return g.coordinator.Deliver(ctx, sess, p)
		})

	case models.EventMessageRead:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.MessageReadPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			return g.coordinator.Read(ctx, sess, p)
		})

	case models.EventReactToMessage:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.ReactPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.presence.Activity(sess)
			return g.coordinator.React(ctx, sess, p)
		})

	case models.EventEditMessage:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.EditMessagePayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.presence.Activity(sess)
			return g.coordinator.Edit(ctx, sess, p)
		})

	case models.EventDeleteMessage:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.DeleteMessagePayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.presence.Activity(sess)
			return g.coordinator.Delete(ctx, sess, p)
		})

	case models.EventCallUser:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.CallUserPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			return g.relay.CallUser(ctx, sess, p)
		})

	case models.EventAcceptCall:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.AcceptCallPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.relay.AcceptCall(sess, p)
			return nil
		})

	case models.EventEndCall:
		g.safely(ctx, sess, frame.Event, func() error {
			var p models.EndCallPayload
			if err := unmarshalPayload(frame.Data, &p); err != nil {
				return err
			}
			g.relay.EndCall(sess, p)
			return nil
		})

	default:
		log.Printf("unknown event %q conn=%s", frame.Event, sess.ID)
		observability.IncWSEvent("unknown", "error")
	}
}

func (g *Gateway) safely(ctx context.Context, sess *Session, event string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			reason := fmt.Sprintf("panic: %v", rec)
			log.Printf("handler panic event=%s conn=%s: %v", event, sess.ID, rec)
			observability.IncWSEvent(event, "panic")
			g.report(ctx, sess, event, reason)
		}
	}()

	if err := fn(); err != nil {
		log.Printf("handler error event=%s conn=%s: %v", event, sess.ID, err)
		observability.IncWSEvent(event, "error")
		g.report(ctx, sess, event, err.Error())
		return
	}
	observability.IncWSEvent(event, "ok")
}

func (g *Gateway) report(ctx context.Context, sess *Session, event, reason string) {
	userID := sess.Identity.UserID
	g.reporter.Report(ctx, event, reason, sess.ID, &userID)
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(raw, dst)
}
