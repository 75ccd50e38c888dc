package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

type MessageService struct {
	base
	chats       *ChatService
	broadcaster Broadcaster
}

func (s *MessageService) list(ctx context.Context, q record.Query) ([]model.Message, error) {
	q.Fields = mapper.MessageSchema.Fields()
	q.OrderBy = []record.Order{{Field: mapper.MessageTimestamp, Dir: record.Asc}}
	recs, err := s.gw.List(ctx, record.CollectionMessage, q)
	if err != nil {
		return nil, err
	}
	msgs := mapper.Messages(recs)
	sortOldestFirst(msgs, func(m model.Message) time.Time { return m.Timestamp })
	return msgs, nil
}

func (s *MessageService) GetAll(ctx context.Context) ([]model.Message, error) {
	msgs, err := s.list(ctx, record.Query{})
	if err != nil {
		return nil, fmt.Errorf("messages.GetAll: %w", err)
	}
	return msgs, nil
}

func (s *MessageService) GetByID(ctx context.Context, id int64) (model.Message, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionMessage, id, mapper.MessageSchema.Fields())
	if err != nil {
		return model.Message{}, fmt.Errorf("messages.GetByID: %w", err)
	}
	return mapper.Message(rec), nil
}

// GetByChatID — сообщения чата по возрастанию времени.
func (s *MessageService) GetByChatID(ctx context.Context, chatID int64) ([]model.Message, error) {
	msgs, err := s.list(ctx, record.Query{Where: []record.Condition{record.Eq(mapper.MessageChatID, chatID)}})
	if err != nil {
		return nil, fmt.Errorf("messages.GetByChatID: %w", err)
	}
	return msgs, nil
}

// Send создаёт сообщение, затем зеркалирует его в чат. Сбой зеркалирования только логируется
// и не влияет на результат отправки.
func (s *MessageService) Send(ctx context.Context, sender model.Viewer, chatID int64, in model.MessageInput) (model.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return model.Message{}, fmt.Errorf("messages.Send: empty content: %w", ErrInvalidInput)
	}
	if sender.Anonymous() {
		return model.Message{}, fmt.Errorf("messages.Send: no sender: %w", ErrInvalidInput)
	}
	created, err := s.co.Create(ctx, record.CollectionMessage, mapper.MessageRecord(chatID, sender, in, s.timestamp()))
	if err != nil {
		return model.Message{}, fmt.Errorf("messages.Send: %w", err)
	}
	msg := mapper.Message(created)
	if err := s.chats.UpdateLastMessage(ctx, chatID, msg); err != nil {
		logger.Warnf("chat %d last message mirror failed: %v", chatID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.MessageCreated(ctx, msg)
	}
	return msg, nil
}

func (s *MessageService) Update(ctx context.Context, id int64, content string) (model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return model.Message{}, fmt.Errorf("messages.Update: empty content: %w", ErrInvalidInput)
	}
	updated, err := s.co.Update(ctx, record.CollectionMessage, id, record.Record{mapper.MessageContent: content})
	if err != nil {
		return model.Message{}, fmt.Errorf("messages.Update: %w", err)
	}
	return mapper.Message(updated), nil
}

func (s *MessageService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionMessage, id); err != nil {
		return fmt.Errorf("messages.Delete: %w", err)
	}
	return nil
}

// MarkAsRead идемпотентна: если пользователь уже в read_by, записи нет.
func (s *MessageService) MarkAsRead(ctx context.Context, id int64, userID string) (model.Message, error) {
	if userID == "" {
		return model.Message{}, fmt.Errorf("messages.MarkAsRead: no user: %w", ErrInvalidInput)
	}
	msg, err := s.GetByID(record.Fresh(ctx), id)
	if err != nil {
		return model.Message{}, fmt.Errorf("messages.MarkAsRead: %w", err)
	}
	readBy, changed := appendUnique(msg.ReadBy, userID)
	if !changed {
		return msg, nil
	}
	updated, err := s.co.Update(ctx, record.CollectionMessage, id, record.Record{mapper.MessageReadBy: record.JoinList(readBy)})
	if err != nil {
		return model.Message{}, fmt.Errorf("messages.MarkAsRead: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.MessagesRead(ctx, msg.ChatID, userID)
	}
	return mapper.Message(updated), nil
}

// MarkChatAsRead дописывает userID в read_by только тем сообщениям чата, где его нет,
// одним пакетом. Возвращает все сообщения чата с учётом прочтения.
func (s *MessageService) MarkChatAsRead(ctx context.Context, chatID int64, userID string) ([]model.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("messages.MarkChatAsRead: no user: %w", ErrInvalidInput)
	}
	msgs, err := s.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("messages.MarkChatAsRead: %w", err)
	}
	patches := make([]record.Record, 0)
	pending := make(map[int64]int)
	for i, m := range msgs {
		readBy, changed := appendUnique(m.ReadBy, userID)
		if !changed {
			continue
		}
		patches = append(patches, record.Record{record.FieldID: m.ID, mapper.MessageReadBy: record.JoinList(readBy)})
		pending[m.ID] = i
	}
	if len(patches) == 0 {
		return msgs, nil
	}
	updated, err := s.co.UpdateMany(ctx, record.CollectionMessage, patches)
	if err != nil {
		return nil, fmt.Errorf("messages.MarkChatAsRead: %w", err)
	}
	for _, rec := range updated {
		if i, ok := pending[rec.ID()]; ok {
			msgs[i].ReadBy, _ = appendUnique(msgs[i].ReadBy, userID)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.MessagesRead(ctx, chatID, userID)
	}
	return msgs, nil
}
