package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher is the sink the reporter publishes to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Reporter forwards gateway faults to the error-tracking collaborator.
type Reporter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// ErrorEnvelope is the wire format of a reported fault.
type ErrorEnvelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventType     string  `json:"event_type"`
	OccurredAt    string  `json:"occurred_at"`
	Service       string  `json:"service"`
	Environment   string  `json:"environment"`
	ConnID        string  `json:"conn_id"`
	UserID        *string `json:"user_id,omitempty"`
	Event         string  `json:"event"`
	Reason        string  `json:"reason"`
}

// NewReporter builds a Reporter.
func NewReporter(publisher Publisher, routingKey, service, environment string) *Reporter {
	return &Reporter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Report publishes a fault. A nil reporter or publisher is a no-op so call
// sites never have to guard.
func (r *Reporter) Report(ctx context.Context, event, reason, connID string, userID *string) {
	if r == nil || r.publisher == nil {
		return
	}

	log.Printf("gateway fault: event=%s conn_id=%s user_id=%v reason=%q", event, connID, userID, reason)
	envelope := ErrorEnvelope{
		SchemaVersion: 1,
		EventType:     "gateway_error",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       r.service,
		Environment:   r.environment,
		ConnID:        connID,
		UserID:        userID,
		Event:         event,
		Reason:        reason,
	}

	if err := r.publisher.Publish(ctx, r.routingKey, envelope); err != nil {
		log.Printf("fault publish failed: %v", err)
	}
}
