package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

const DefaultTrendingChannels = 5

type ChannelService struct {
	base
}

func (s *ChannelService) GetAll(ctx context.Context, viewerID string) ([]model.Channel, error) {
	recs, err := s.gw.List(ctx, record.CollectionChannel, record.Query{
		Fields:  mapper.ChannelSchema.Fields(),
		OrderBy: []record.Order{{Field: record.FieldCreatedOn, Dir: record.Desc}},
	})
	if err != nil {
		return nil, fmt.Errorf("channels.GetAll: %w", err)
	}
	return mapper.Channels(recs, viewerID), nil
}

func (s *ChannelService) GetByID(ctx context.Context, id int64, viewerID string) (model.Channel, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionChannel, id, mapper.ChannelSchema.Fields())
	if err != nil {
		return model.Channel{}, fmt.Errorf("channels.GetByID: %w", err)
	}
	return mapper.Channel(rec, viewerID), nil
}

// Create — активный канал, создатель сразу участник.
func (s *ChannelService) Create(ctx context.Context, viewer model.Viewer, in model.ChannelInput) (model.Channel, error) {
	if in.ChannelName == nil || *in.ChannelName == "" {
		return model.Channel{}, fmt.Errorf("channels.Create: empty name: %w", ErrInvalidInput)
	}
	rec := mapper.ChannelRecord(in)
	if in.Description == nil {
		rec[mapper.ChannelDescription] = ""
	}
	if in.IsActive == nil {
		rec[mapper.ChannelIsActive] = true
	}
	rec[mapper.ChannelMessageCount] = 0
	joined := []string{}
	if !viewer.Anonymous() {
		joined = append(joined, viewer.ID)
	}
	rec[mapper.ChannelJoinedBy] = record.JoinList(joined)
	created, err := s.co.Create(ctx, record.CollectionChannel, rec)
	if err != nil {
		return model.Channel{}, fmt.Errorf("channels.Create: %w", err)
	}
	return mapper.Channel(created, viewer.ID), nil
}

func (s *ChannelService) Update(ctx context.Context, id int64, in model.ChannelInput, viewerID string) (model.Channel, error) {
	patch := mapper.ChannelRecord(in)
	if len(patch) == 0 {
		return s.GetByID(ctx, id, viewerID)
	}
	updated, err := s.co.Update(ctx, record.CollectionChannel, id, patch)
	if err != nil {
		return model.Channel{}, fmt.Errorf("channels.Update: %w", err)
	}
	return mapper.Channel(updated, viewerID), nil
}

func (s *ChannelService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionChannel, id); err != nil {
		return fmt.Errorf("channels.Delete: %w", err)
	}
	return nil
}

// GetTrending — активные каналы по числу участников, затем сообщений; стабильно.
func (s *ChannelService) GetTrending(ctx context.Context, limit int, viewerID string) ([]model.Channel, error) {
	if limit <= 0 {
		limit = DefaultTrendingChannels
	}
	recs, err := s.gw.List(ctx, record.CollectionChannel, record.Query{
		Fields: mapper.ChannelSchema.Fields(),
		Where:  []record.Condition{record.Eq(mapper.ChannelIsActive, true)},
	})
	if err != nil {
		return nil, fmt.Errorf("channels.GetTrending: %w", err)
	}
	channels := mapper.Channels(recs, viewerID)
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].MemberCount != channels[j].MemberCount {
			return channels[i].MemberCount > channels[j].MemberCount
		}
		return channels[i].MessageCount > channels[j].MessageCount
	})
	if len(channels) > limit {
		channels = channels[:limit]
	}
	return channels, nil
}

func (s *ChannelService) Search(ctx context.Context, query, viewerID string) ([]model.Channel, error) {
	q, ok := normalizeQuery(query)
	if !ok {
		return []model.Channel{}, nil
	}
	recs, err := s.gw.List(ctx, record.CollectionChannel, record.Query{
		Fields: mapper.ChannelSchema.Fields(),
		WhereGroups: []record.Group{record.AnyOf(
			record.Like(mapper.ChannelName, q),
			record.Like(mapper.ChannelDescription, q),
		)},
	})
	if err != nil {
		return nil, fmt.Errorf("channels.Search: %w", err)
	}
	return mapper.Channels(recs, viewerID), nil
}

// Join/Leave — read-modify-write набора joined_by; повторный вызов ничего не пишет.
func (s *ChannelService) Join(ctx context.Context, id int64, userID string) (model.Channel, error) {
	return s.membership(ctx, id, userID, true)
}

func (s *ChannelService) Leave(ctx context.Context, id int64, userID string) (model.Channel, error) {
	return s.membership(ctx, id, userID, false)
}

func (s *ChannelService) membership(ctx context.Context, id int64, userID string, join bool) (model.Channel, error) {
	if userID == "" {
		return model.Channel{}, fmt.Errorf("channels.membership: no user: %w", ErrInvalidInput)
	}
	ch, err := s.GetByID(record.Fresh(ctx), id, userID)
	if err != nil {
		return model.Channel{}, err
	}
	if ch.IsJoined == join {
		return ch, nil
	}
	joined, _ := toggle(ch.JoinedBy, userID)
	updated, err := s.co.Update(ctx, record.CollectionChannel, id, record.Record{mapper.ChannelJoinedBy: record.JoinList(joined)})
	if err != nil {
		return model.Channel{}, fmt.Errorf("channels.membership: %w", err)
	}
	return mapper.Channel(updated, userID), nil
}
