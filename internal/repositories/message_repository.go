package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines the gateway's mutations on stored messages.
type MessageRepository interface {
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	MarkDelivered(ctx context.Context, messageID string) (time.Time, error)
	UpdateContent(ctx context.Context, messageID string, senderID string, content string) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, conversation_id, sender_id, content, delivered_at, edited_at, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkDelivered sets the delivery timestamp if it is not already set and
// returns the resulting timestamp. Marking twice keeps the first value.
func (r *MessageRepo) MarkDelivered(ctx context.Context, messageID string) (time.Time, error) {
	var deliveredAt time.Time
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET delivered_at = COALESCE(delivered_at, NOW()) WHERE id=$1 RETURNING delivered_at`, messageID).
		Scan(&deliveredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrMessageNotFound
	}
	return deliveredAt, err
}

// UpdateContent replaces a message's content and stamps the edit time. The
// update is guarded by sender id so a non-sender row never changes.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID string, senderID string, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET content=$1, edited_at=NOW() WHERE id=$2 AND sender_id=$3 RETURNING id, conversation_id, sender_id, content, delivered_at, edited_at, created_at`, content, messageID, senderID).
		StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteMessage removes a message.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
