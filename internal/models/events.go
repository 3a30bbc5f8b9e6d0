package models

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinConversation = "join-conversation"
	EventSendMessage      = "send-message"
	EventTyping           = "typing"
	EventUserOnline       = "user-online"
	EventUserOffline      = "user-offline"
	EventMessageDelivered = "message-delivered"
	EventMessageRead      = "message-read"
	EventReactToMessage   = "react-to-message"
	EventEditMessage      = "edit-message"
	EventDeleteMessage    = "delete-message"
	EventCallUser         = "call-user"
	EventAcceptCall       = "accept-call"
	EventEndCall          = "end-call"
)

// Server-to-client event names.
const (
	EventReceiveMessage      = "receive-message"
	EventUserStatusChanged   = "user-status-changed"
	EventMessageWasDelivered = "message-was-delivered"
	EventMessageSeen         = "message-seen"
	EventMessageReacted      = "message-reacted"
	EventMessageEdited       = "message-edited"
	EventMessageDeleted      = "message-deleted"
	EventCallMade            = "call-made"
	EventCallAccepted        = "call-accepted"
	EventCallEnded           = "call-ended"
)

// Presence statuses carried by user-status-changed.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// ClientFrame is the envelope of every inbound websocket frame.
type ClientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerFrame is the envelope of every outbound websocket frame.
type ServerFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type JoinConversationPayload struct {
	RoomID string `json:"roomId"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type MessageDeliveredPayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type MessageReadPayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type ReactPayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Reaction  string `json:"reaction"`
}

type EditMessagePayload struct {
	RoomID     string `json:"roomId"`
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
}

type DeleteMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

type CallUserPayload struct {
	From       string          `json:"from"`
	UserToCall string          `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData"`
}

type AcceptCallPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type EndCallPayload struct {
	To string `json:"to"`
}

// UserStatusPayload is broadcast to every other connection on presence change.
type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
