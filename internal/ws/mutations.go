package ws

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chat-gateway/internal/models"
	"chat-gateway/internal/observability"
	"chat-gateway/internal/repositories"
)

// privilegedRoles may delete any message, not only their own.
var privilegedRoles = map[string]bool{
	"admin":      true,
	"superadmin": true,
}

// Coordinator applies message mutations against the backing store and fans
// the resulting state out to the owning room. Every operation is idempotent
// or no-op-safe against duplicate delivery.
type Coordinator struct {
	messages  repositories.MessageRepository
	receipts  repositories.ReceiptRepository
	reactions repositories.ReactionRepository
	profiles  repositories.ProfileRepository
	rooms     *Rooms
	tracer    trace.Tracer
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(messages repositories.MessageRepository, receipts repositories.ReceiptRepository, reactions repositories.ReactionRepository, profiles repositories.ProfileRepository, rooms *Rooms) *Coordinator {
	return &Coordinator{
		messages:  messages,
		receipts:  receipts,
		reactions: reactions,
		profiles:  profiles,
		rooms:     rooms,
		tracer:    otel.Tracer("chat-gateway/ws"),
	}
}

// Deliver stamps the delivery timestamp. Stamping twice keeps the first
// value; the broadcast fires either way.
func (c *Coordinator) Deliver(ctx context.Context, sess *Session, p models.MessageDeliveredPayload) error {
	ctx, span := c.tracer.Start(ctx, "mutation.deliver")
	defer span.End()

	deliveredAt, err := c.messages.MarkDelivered(ctx, p.MessageID)
	if err != nil {
		return err
	}

	c.rooms.Broadcast(p.RoomID, models.EventMessageWasDelivered, map[string]any{
		"messageId":   p.MessageID,
		"userId":      recipientID(p.UserID, sess),
		"deliveredAt": deliveredAt,
	}, "")
	return nil
}

// Read creates a read receipt and broadcasts it with the reader's profile
// snippet. A duplicate receipt is a successful no-op with no broadcast.
func (c *Coordinator) Read(ctx context.Context, sess *Session, p models.MessageReadPayload) error {
	ctx, span := c.tracer.Start(ctx, "mutation.read")
	defer span.End()

	readerID := recipientID(p.UserID, sess)
	receipt, err := c.receipts.CreateReceipt(ctx, p.MessageID, readerID)
	if errors.Is(err, repositories.ErrReceiptExists) {
		return nil
	}
	if err != nil {
		return err
	}

	reader, err := c.profiles.GetProfile(ctx, readerID)
	if err != nil {
		log.Printf("reader profile lookup failed user=%s: %v", readerID, err)
		reader = models.Profile{UserID: readerID}
	}

	c.rooms.Broadcast(p.RoomID, models.EventMessageSeen, map[string]any{
		"messageId": p.MessageID,
		"userId":    readerID,
		"readAt":    receipt.ReadAt,
		"reader":    reader,
	}, "")
	return nil
}

// React toggles the actor's reaction and broadcasts the grouped result. The
// store moves a user between buckets atomically, so no observer ever sees a
// user under two reactions.
func (c *Coordinator) React(ctx context.Context, sess *Session, p models.ReactPayload) error {
	ctx, span := c.tracer.Start(ctx, "mutation.react")
	defer span.End()

	actor := sess.Identity.UserID
	groups, err := c.reactions.ToggleReaction(ctx, p.MessageID, actor, p.Reaction)
	if err != nil {
		return err
	}

	c.rooms.Broadcast(p.RoomID, models.EventMessageReacted, map[string]any{
		"messageId": p.MessageID,
		"userId":    actor,
		"reaction":  p.Reaction,
		"reactions": groups,
	}, "")
	return nil
}

// Edit updates content for the original sender only. Unauthorized attempts
// are dropped with no mutation and no broadcast.
func (c *Coordinator) Edit(ctx context.Context, sess *Session, p models.EditMessagePayload) error {
	ctx, span := c.tracer.Start(ctx, "mutation.edit")
	defer span.End()

	msg, err := c.messages.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if msg.SenderID != sess.Identity.UserID {
		observability.IncWSEvent(models.EventEditMessage, "denied")
		return nil
	}

	updated, err := c.messages.UpdateContent(ctx, p.MessageID, sess.Identity.UserID, p.NewContent)
	if err != nil {
		return err
	}

	var editedAt time.Time
	if updated.EditedAt != nil {
		editedAt = *updated.EditedAt
	}
	c.rooms.Broadcast(p.RoomID, models.EventMessageEdited, map[string]any{
		"messageId":  p.MessageID,
		"newContent": updated.Content,
		"editedAt":   editedAt,
	}, "")
	return nil
}

// Delete removes a message for the sender or a privileged role. Unauthorized
// attempts are dropped silently, same as Edit.
func (c *Coordinator) Delete(ctx context.Context, sess *Session, p models.DeleteMessagePayload) error {
	ctx, span := c.tracer.Start(ctx, "mutation.delete")
	defer span.End()

	msg, err := c.messages.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	actor := sess.Identity
	if msg.SenderID != actor.UserID && !privilegedRoles[actor.Role] {
		observability.IncWSEvent(models.EventDeleteMessage, "denied")
		return nil
	}

	if err := c.messages.DeleteMessage(ctx, p.MessageID); err != nil {
		return err
	}

	c.rooms.Broadcast(p.RoomID, models.EventMessageDeleted, map[string]any{
		"messageId": p.MessageID,
	}, "")
	return nil
}

// recipientID prefers the id named in the payload and falls back to the
// connection's own identity.
func recipientID(payloadUserID string, sess *Session) string {
	if payloadUserID != "" {
		return payloadUserID
	}
	return sess.Identity.UserID
}
