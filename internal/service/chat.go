package service

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

type ChatService struct {
	base
}

// GetAll — чаты с участниками, по убыванию времени последнего сообщения (иначе создания).
func (s *ChatService) GetAll(ctx context.Context) ([]model.Chat, error) {
	recs, err := s.gw.List(ctx, record.CollectionChat, record.Query{Fields: mapper.ChatSchema.Fields()})
	if err != nil {
		return nil, fmt.Errorf("chats.GetAll: %w", err)
	}
	chats := make([]model.Chat, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			chats[i] = mapper.ChatWithParticipants(gctx, s.gw, rec)
			return nil
		})
	}
	_ = g.Wait()
	SortChats(chats)
	return chats, nil
}

// SortChats упорядочивает по ActivityTime по убыванию, стабильно.
func SortChats(chats []model.Chat) {
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].ActivityTime().After(chats[j].ActivityTime()) })
}

func (s *ChatService) GetByID(ctx context.Context, id int64) (model.Chat, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionChat, id, mapper.ChatSchema.Fields())
	if err != nil {
		return model.Chat{}, fmt.Errorf("chats.GetByID: %w", err)
	}
	return mapper.ChatWithParticipants(ctx, s.gw, rec), nil
}

// ParticipantIDs — только список участников, без загрузки профилей.
func (s *ChatService) ParticipantIDs(ctx context.Context, id int64) ([]string, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionChat, id, record.Fields(mapper.ChatParticipantIDs))
	if err != nil {
		return nil, fmt.Errorf("chats.ParticipantIDs: %w", err)
	}
	return rec.List(mapper.ChatParticipantIDs), nil
}

// Create создаёт чат; создатель всегда среди участников.
func (s *ChatService) Create(ctx context.Context, viewer model.Viewer, in model.ChatInput) (model.Chat, error) {
	ids := record.ParseList(in.ParticipantIDs)
	if !viewer.Anonymous() {
		ids, _ = appendUnique(ids, viewer.ID)
	}
	if len(ids) < 2 {
		return model.Chat{}, fmt.Errorf("chats.Create: need at least two participants: %w", ErrInvalidInput)
	}
	in.ParticipantIDs = ids
	rec := mapper.ChatRecord(in)
	if in.Name == nil {
		rec[mapper.FieldName] = ""
		rec[mapper.ChatName] = ""
	}
	if in.AvatarURL == nil {
		rec[mapper.ChatAvatarURL] = ""
	}
	rec[mapper.ChatCreatedAt] = s.timestamp()
	created, err := s.co.Create(ctx, record.CollectionChat, rec)
	if err != nil {
		return model.Chat{}, fmt.Errorf("chats.Create: %w", err)
	}
	return mapper.ChatWithParticipants(ctx, s.gw, created), nil
}

func (s *ChatService) Update(ctx context.Context, id int64, in model.ChatInput) (model.Chat, error) {
	patch := mapper.ChatRecord(in)
	if len(patch) == 0 {
		return s.GetByID(ctx, id)
	}
	updated, err := s.co.Update(ctx, record.CollectionChat, id, patch)
	if err != nil {
		return model.Chat{}, fmt.Errorf("chats.Update: %w", err)
	}
	return mapper.ChatWithParticipants(ctx, s.gw, updated), nil
}

func (s *ChatService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionChat, id); err != nil {
		return fmt.Errorf("chats.Delete: %w", err)
	}
	return nil
}

// UpdateLastMessage зеркалирует сообщение в денормализованные поля чата.
func (s *ChatService) UpdateLastMessage(ctx context.Context, chatID int64, m model.Message) error {
	if _, err := s.co.Update(ctx, record.CollectionChat, chatID, mapper.LastMessageRecord(chatID, m)); err != nil {
		return fmt.Errorf("chats.UpdateLastMessage: %w", err)
	}
	return nil
}
