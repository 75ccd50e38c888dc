package model

import "time"

type Chat struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	ParticipantIDs []string     `json:"participantIds"`
	Participants   []User       `json:"participants"`
	AvatarURL      string       `json:"avatarUrl"`
	LastMessage    *LastMessage `json:"lastMessage,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// LastMessage — денормализованная копия последнего сообщения чата.
type LastMessage struct {
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	SenderID       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername"`
}

// ActivityTime — время последнего сообщения, иначе время создания чата.
func (c Chat) ActivityTime() time.Time {
	if c.LastMessage != nil && !c.LastMessage.Timestamp.IsZero() {
		return c.LastMessage.Timestamp
	}
	return c.CreatedAt
}

type ChatInput struct {
	Name           *string  `json:"name,omitempty"`
	ParticipantIDs []string `json:"participantIds,omitempty"`
	AvatarURL      *string  `json:"avatarUrl,omitempty"`
}

// ChatSummary — строка списка чатов.
type ChatSummary struct {
	Chat
	UnreadCount int `json:"unreadCount"`
}
