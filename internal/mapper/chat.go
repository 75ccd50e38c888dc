package mapper

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

// Chat маппит запись чата без участников (их подставляет ResolveParticipants).
func Chat(rec record.Record) model.Chat {
	s := ChatSchema
	s.check(rec)
	c := model.Chat{
		ID:             rec.ID(),
		Name:           s.str(rec, ChatName),
		ParticipantIDs: rec.List(ChatParticipantIDs),
		Participants:   []model.User{},
		AvatarURL:      s.str(rec, ChatAvatarURL),
		CreatedAt:      s.timestamp(rec, ChatCreatedAt),
	}
	if c.Name == "" {
		c.Name = s.str(rec, FieldName)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = rec.Time(record.FieldCreatedOn)
	}
	if rec.String(ChatLastMessageContent) != "" || rec.String(ChatLastMessageTimestamp) != "" {
		c.LastMessage = &model.LastMessage{
			Content:        s.str(rec, ChatLastMessageContent),
			Timestamp:      s.timestamp(rec, ChatLastMessageTimestamp),
			SenderID:       s.str(rec, ChatLastMessageSenderID),
			SenderUsername: s.str(rec, ChatLastMessageSenderName),
		}
	}
	return c
}

// ResolveParticipants загружает пользователей по id параллельно, сохраняя порядок ids.
// Id, которые не удалось загрузить (не число, нет записи, сбой), молча отбрасываются.
func ResolveParticipants(ctx context.Context, gw record.Gateway, ids []string) []model.User {
	resolved := make([]*model.User, len(ids))
	var g errgroup.Group
	g.SetLimit(8)
	for i, raw := range ids {
		i := i
		id := record.AsInt(raw)
		if id <= 0 {
			continue
		}
		g.Go(func() error {
			rec, err := gw.GetByID(ctx, record.CollectionUser, id, UserSchema.Fields())
			if err != nil {
				logger.Debugf("participant %d skipped: %v", id, err)
				return nil
			}
			u := User(rec)
			resolved[i] = &u
			return nil
		})
	}
	_ = g.Wait()
	out := make([]model.User, 0, len(ids))
	for _, u := range resolved {
		if u != nil {
			out = append(out, *u)
		}
	}
	return out
}

// ChatWithParticipants — Chat плюс разрешённые участники.
func ChatWithParticipants(ctx context.Context, gw record.Gateway, rec record.Record) model.Chat {
	c := Chat(rec)
	c.Participants = ResolveParticipants(ctx, gw, c.ParticipantIDs)
	return c
}

func ChatRecord(in model.ChatInput) record.Record {
	rec := record.Record{}
	if in.Name != nil {
		rec[FieldName] = *in.Name
		rec[ChatName] = *in.Name
	}
	if in.ParticipantIDs != nil {
		rec[ChatParticipantIDs] = record.JoinList(record.ParseList(in.ParticipantIDs))
	}
	if in.AvatarURL != nil {
		rec[ChatAvatarURL] = *in.AvatarURL
	}
	return rec
}

// LastMessageRecord — payload зеркалирования последнего сообщения в чат.
func LastMessageRecord(chatID int64, m model.Message) record.Record {
	return record.Record{
		record.FieldID:            chatID,
		ChatLastMessageContent:    m.Content,
		ChatLastMessageTimestamp:  record.FormatTime(m.Timestamp),
		ChatLastMessageSenderID:   m.SenderID,
		ChatLastMessageSenderName: m.SenderUsername,
	}
}
