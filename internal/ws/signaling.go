package ws

import (
	"context"
	"errors"
	"log"

	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
)

// Relay forwards call-signaling payloads between peers. No call state is
// tracked; correctness of the call lifecycle belongs to the two clients.
type Relay struct {
	registry *Registry
	profiles repositories.ProfileRepository
}

// NewRelay builds a Relay.
func NewRelay(registry *Registry, profiles repositories.ProfileRepository) *Relay {
	return &Relay{registry: registry, profiles: profiles}
}

// CallUser forwards a call initiation to the callee, enriched with the
// caller's display name.
func (r *Relay) CallUser(ctx context.Context, sess *Session, p models.CallUserPayload) error {
	callerID := p.From
	if callerID == "" {
		callerID = sess.Identity.UserID
	}

	callerName := callerID
	profile, err := r.profiles.GetProfile(ctx, callerID)
	switch {
	case errors.Is(err, repositories.ErrProfileNotFound):
		log.Printf("caller profile missing user=%s", callerID)
	case err != nil:
		return err
	default:
		callerName = profile.DisplayName
	}

	r.registry.SendToUser(p.UserToCall, models.EventCallMade, map[string]any{
		"signal":     p.SignalData,
		"from":       callerID,
		"callerName": callerName,
	})
	return nil
}

// AcceptCall forwards the accepting signal back to the original caller.
func (r *Relay) AcceptCall(sess *Session, p models.AcceptCallPayload) {
	r.registry.SendToUser(p.To, models.EventCallAccepted, map[string]any{
		"signal": p.Signal,
	})
}

// EndCall forwards a termination notice to the peer.
func (r *Relay) EndCall(sess *Session, p models.EndCallPayload) {
	r.registry.SendToUser(p.To, models.EventCallEnded, map[string]any{
		"from": sess.Identity.UserID,
	})
}
