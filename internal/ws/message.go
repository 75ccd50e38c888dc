package ws

import (
	"github.com/miamiwave/internal/model"
)

type EventType string

const (
	EventNewMessage  EventType = "new_message"
	EventMessageRead EventType = "message_read"
	EventTyping      EventType = "typing"
	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"
	EventError       EventType = "error"
)

// IncomingMessage is what the client sends to the server.
type IncomingMessage struct {
	Type   EventType `json:"type"`
	ChatID int64     `json:"chat_id,omitempty"`
}

// OutgoingMessage is what the server sends to the client.
type OutgoingMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// NewMessagePayload is broadcast to chat participants after a message is stored.
type NewMessagePayload struct {
	ChatID  int64         `json:"chat_id"`
	Message model.Message `json:"message"`
}

// TypingPayload is relayed to the other participants of a chat.
type TypingPayload struct {
	ChatID   int64  `json:"chat_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// MessageReadPayload is broadcast when a participant has read a chat.
type MessageReadPayload struct {
	ChatID int64  `json:"chat_id"`
	UserID string `json:"user_id"`
}

// UserStatusPayload is broadcast for online/offline status.
type UserStatusPayload struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}
