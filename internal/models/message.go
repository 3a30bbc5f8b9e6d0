package models

import "time"

// Message is a persisted chat message. The CRUD layer owns creation; the
// gateway only mutates delivery state, content, reactions and existence.
type Message struct {
	ID             string     `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	SenderID       string     `db:"sender_id" json:"sender_id"`
	Content        string     `db:"content" json:"content"`
	DeliveredAt    *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	EditedAt       *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ReadReceipt marks a message as read by a user. At most one receipt exists
// per (message, user) pair, enforced by the store's primary key.
type ReadReceipt struct {
	MessageID string    `db:"message_id" json:"message_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ReadAt    time.Time `db:"read_at" json:"read_at"`
}

// Reaction is one user's reaction to one message. A user holds at most one
// reaction per message; changing it replaces the row.
type Reaction struct {
	MessageID string    `db:"message_id" json:"message_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Reaction  string    `db:"reaction" json:"reaction"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionGroup is the per-symbol view broadcast to clients.
type ReactionGroup struct {
	Reaction string   `json:"reaction"`
	Count    int      `json:"count"`
	Users    []string `json:"users"`
}
