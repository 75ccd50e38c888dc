package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

type UserService struct {
	base
}

func (s *UserService) GetAll(ctx context.Context) ([]model.User, error) {
	recs, err := s.gw.List(ctx, record.CollectionUser, record.Query{
		Fields:  mapper.UserSchema.Fields(),
		OrderBy: []record.Order{{Field: mapper.UserDisplayName, Dir: record.Asc}},
	})
	if err != nil {
		return nil, fmt.Errorf("users.GetAll: %w", err)
	}
	return mapper.Users(recs), nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (model.User, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionUser, id, mapper.UserSchema.Fields())
	if err != nil {
		return model.User{}, fmt.Errorf("users.GetByID: %w", err)
	}
	return mapper.User(rec), nil
}

// GetByUsername возвращает record.ErrNotFound, если пользователя нет.
func (s *UserService) GetByUsername(ctx context.Context, username string) (model.User, error) {
	recs, err := s.gw.List(ctx, record.CollectionUser, record.Query{
		Fields: mapper.UserSchema.Fields(),
		Where:  []record.Condition{record.Eq(mapper.UserUsername, username)},
		Paging: &record.Paging{Limit: 1},
	})
	if err != nil {
		return model.User{}, fmt.Errorf("users.GetByUsername: %w", err)
	}
	if len(recs) == 0 {
		return model.User{}, fmt.Errorf("users.GetByUsername %q: %w", username, record.ErrNotFound)
	}
	return mapper.User(recs[0]), nil
}

// Create заводит профиль; без аватара подставляется детерминированная заглушка.
func (s *UserService) Create(ctx context.Context, in model.UserInput) (model.User, error) {
	if in.Username == nil || strings.TrimSpace(*in.Username) == "" {
		return model.User{}, fmt.Errorf("users.Create: empty username: %w", ErrInvalidInput)
	}
	rec := mapper.UserRecord(in)
	if in.DisplayName == nil {
		rec[mapper.UserDisplayName] = *in.Username
	}
	if in.AvatarURL == nil || *in.AvatarURL == "" {
		rec[mapper.UserAvatar] = mapper.AvatarURL(*in.Username)
	}
	if in.Bio == nil {
		rec[mapper.UserBio] = ""
	}
	rec[mapper.UserFollowersCount] = 0
	rec[mapper.UserFollowingCount] = 0
	rec[mapper.UserIsFollowing] = false
	if in.IsOnline == nil {
		rec[mapper.UserIsOnline] = false
	}
	created, err := s.co.Create(ctx, record.CollectionUser, rec)
	if err != nil {
		return model.User{}, fmt.Errorf("users.Create: %w", err)
	}
	return mapper.User(created), nil
}

func (s *UserService) Update(ctx context.Context, id int64, in model.UserInput) (model.User, error) {
	patch := mapper.UserRecord(in)
	if len(patch) == 0 {
		return s.GetByID(ctx, id)
	}
	updated, err := s.co.Update(ctx, record.CollectionUser, id, patch)
	if err != nil {
		return model.User{}, fmt.Errorf("users.Update: %w", err)
	}
	return mapper.User(updated), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionUser, id); err != nil {
		return fmt.Errorf("users.Delete: %w", err)
	}
	return nil
}

// Follow увеличивает followers_count и ставит is_following. Повторный Follow ничего не пишет.
func (s *UserService) Follow(ctx context.Context, id int64) (model.User, error) {
	return s.setFollowing(ctx, id, true)
}

// Unfollow уменьшает followers_count (не ниже 0) и снимает is_following.
func (s *UserService) Unfollow(ctx context.Context, id int64) (model.User, error) {
	return s.setFollowing(ctx, id, false)
}

func (s *UserService) setFollowing(ctx context.Context, id int64, follow bool) (model.User, error) {
	rec, err := s.gw.GetByID(record.Fresh(ctx), record.CollectionUser, id, mapper.UserSchema.Fields())
	if err != nil {
		return model.User{}, fmt.Errorf("users.setFollowing: %w", err)
	}
	u := mapper.User(rec)
	if u.IsFollowing == follow {
		return u, nil
	}
	count := u.FollowersCount + 1
	if !follow {
		count = max(0, u.FollowersCount-1)
	}
	updated, err := s.co.Update(ctx, record.CollectionUser, id, record.Record{
		mapper.UserFollowersCount: count,
		mapper.UserIsFollowing:    follow,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("users.setFollowing: %w", err)
	}
	return mapper.User(updated), nil
}

// SetOnline обновляет флаг присутствия; userID — строковый id зрителя.
func (s *UserService) SetOnline(ctx context.Context, userID string, online bool) error {
	id := record.AsInt(userID)
	if id <= 0 {
		return fmt.Errorf("users.SetOnline %q: %w", userID, ErrInvalidInput)
	}
	if _, err := s.co.Update(ctx, record.CollectionUser, id, record.Record{mapper.UserIsOnline: online}); err != nil {
		return fmt.Errorf("users.SetOnline: %w", err)
	}
	return nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]model.User, error) {
	q, ok := normalizeQuery(query)
	if !ok {
		return []model.User{}, nil
	}
	recs, err := s.gw.List(ctx, record.CollectionUser, record.Query{
		Fields: mapper.UserSchema.Fields(),
		WhereGroups: []record.Group{record.AnyOf(
			record.Like(mapper.UserUsername, q),
			record.Like(mapper.UserDisplayName, q),
			record.Like(mapper.UserBio, q),
		)},
	})
	if err != nil {
		return nil, fmt.Errorf("users.Search: %w", err)
	}
	return mapper.Users(recs), nil
}

// GetSuggested — первые limit пользователей без подписки, в порядке хранилища.
func (s *UserService) GetSuggested(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 {
		return []model.User{}, nil
	}
	recs, err := s.gw.List(ctx, record.CollectionUser, record.Query{
		Fields: mapper.UserSchema.Fields(),
		Where:  []record.Condition{record.Eq(mapper.UserIsFollowing, false)},
		Paging: &record.Paging{Limit: limit * 2},
	})
	if err != nil {
		return nil, fmt.Errorf("users.GetSuggested: %w", err)
	}
	users := mapper.Users(recs)
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
