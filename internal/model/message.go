package model

import "time"

type MessageType string

const (
	MessageTypeText MessageType = "text"
)

type Message struct {
	ID             int64       `json:"id"`
	ChatID         int64       `json:"chatId"`
	SenderID       string      `json:"senderId"`
	SenderUsername string      `json:"senderUsername"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	ReadBy         []string    `json:"readBy"`
	Type           MessageType `json:"type"`
	// Pending — оптимистичное сообщение, ещё не подтверждённое хранилищем.
	Pending bool   `json:"pending,omitempty"`
	TempID  string `json:"tempId,omitempty"`
}

func (m Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Unread — сообщение не от зрителя и зритель его не прочитал.
func (m Message) Unread(viewerID string) bool {
	return m.SenderID != viewerID && !m.ReadByUser(viewerID)
}

type MessageInput struct {
	Content string      `json:"content"`
	Type    MessageType `json:"type,omitempty"`
}

// RoomMessage — сообщение в ленте чата с вычисляемыми флагами отображения.
type RoomMessage struct {
	Message
	IsOwn      bool `json:"isOwn"`
	ShowAvatar bool `json:"showAvatar"`
	ShowTime   bool `json:"showTime"`
}
