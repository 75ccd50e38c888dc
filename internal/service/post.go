package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

const postNameMaxLen = 40

type PostService struct {
	base
	comments *CommentStore
}

func (s *PostService) withComments(p model.Post) model.Post {
	p.Comments = s.comments.For(p.ID)
	return p
}

func (s *PostService) mapAll(recs []record.Record) []model.Post {
	posts := mapper.Posts(recs)
	for i := range posts {
		posts[i] = s.withComments(posts[i])
	}
	sortNewestFirst(posts, func(p model.Post) time.Time { return p.Timestamp })
	return posts
}

// GetAll — лента: по убыванию timestamp, равные в порядке выборки.
func (s *PostService) GetAll(ctx context.Context) ([]model.Post, error) {
	recs, err := s.gw.List(ctx, record.CollectionPost, record.Query{Fields: mapper.PostSchema.Fields()})
	if err != nil {
		return nil, fmt.Errorf("posts.GetAll: %w", err)
	}
	return s.mapAll(recs), nil
}

func (s *PostService) GetByID(ctx context.Context, id int64) (model.Post, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionPost, id, mapper.PostSchema.Fields())
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.GetByID: %w", err)
	}
	return s.withComments(mapper.Post(rec)), nil
}

func (s *PostService) GetByUsername(ctx context.Context, username string) ([]model.Post, error) {
	recs, err := s.gw.List(ctx, record.CollectionPost, record.Query{
		Fields: mapper.PostSchema.Fields(),
		Where:  []record.Condition{record.Eq(mapper.PostUsername, username)},
	})
	if err != nil {
		return nil, fmt.Errorf("posts.GetByUsername: %w", err)
	}
	return s.mapAll(recs), nil
}

// Create публикует пост от имени зрителя; хэштеги извлекаются из текста.
func (s *PostService) Create(ctx context.Context, viewer model.Viewer, in model.PostInput) (model.Post, error) {
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return model.Post{}, fmt.Errorf("posts.Create: empty content: %w", ErrInvalidInput)
	}
	if viewer.Anonymous() {
		return model.Post{}, fmt.Errorf("posts.Create: no author: %w", ErrInvalidInput)
	}
	rec := mapper.PostRecord(in)
	rec[mapper.FieldName] = postName(*in.Content)
	rec[mapper.PostUsername] = viewer.Username
	rec[mapper.PostDisplayName] = viewer.Name()
	rec[mapper.PostLikes] = ""
	rec[mapper.PostTimestamp] = s.timestamp()
	if _, ok := rec[mapper.PostImageURL]; !ok {
		rec[mapper.PostImageURL] = ""
	}
	created, err := s.co.Create(ctx, record.CollectionPost, rec)
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.Create: %w", err)
	}
	return s.withComments(mapper.Post(created)), nil
}

func postName(content string) string {
	content = strings.TrimSpace(content)
	r := []rune(content)
	if len(r) > postNameMaxLen {
		return string(r[:postNameMaxLen])
	}
	return content
}

// Update пишет только переданные поля; при смене текста хэштеги пересчитываются.
func (s *PostService) Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	patch := mapper.PostRecord(in)
	if len(patch) == 0 {
		return s.GetByID(ctx, id)
	}
	updated, err := s.co.Update(ctx, record.CollectionPost, id, patch)
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.Update: %w", err)
	}
	return s.withComments(mapper.Post(updated)), nil
}

func (s *PostService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionPost, id); err != nil {
		return fmt.Errorf("posts.Delete: %w", err)
	}
	s.comments.Forget(id)
	return nil
}

// ToggleLike — read-modify-write набора likes; параллельные переключения могут потерять обновление.
func (s *PostService) ToggleLike(ctx context.Context, id int64, userID string) (model.Post, error) {
	if userID == "" {
		return model.Post{}, fmt.Errorf("posts.ToggleLike: no user: %w", ErrInvalidInput)
	}
	rec, err := s.gw.GetByID(record.Fresh(ctx), record.CollectionPost, id, record.Fields(mapper.PostLikes))
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.ToggleLike: %w", err)
	}
	likes, _ := toggle(rec.List(mapper.PostLikes), userID)
	updated, err := s.co.Update(ctx, record.CollectionPost, id, record.Record{mapper.PostLikes: record.JoinList(likes)})
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.ToggleLike: %w", err)
	}
	return s.withComments(mapper.Post(updated)), nil
}

// AddComment добавляет комментарий в CommentStore; пост должен существовать.
func (s *PostService) AddComment(ctx context.Context, id int64, viewer model.Viewer, content string) (model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Post{}, fmt.Errorf("posts.AddComment: empty content: %w", ErrInvalidInput)
	}
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, fmt.Errorf("posts.AddComment: %w", err)
	}
	s.comments.Add(id, viewer.Username, content, s.now())
	return s.withComments(post), nil
}

// Search — "содержит" по тексту, автору, имени и хэштегам (OR), сортировка как в ленте.
func (s *PostService) Search(ctx context.Context, query string) ([]model.Post, error) {
	q, ok := normalizeQuery(query)
	if !ok {
		return []model.Post{}, nil
	}
	recs, err := s.gw.List(ctx, record.CollectionPost, record.Query{
		Fields: mapper.PostSchema.Fields(),
		WhereGroups: []record.Group{record.AnyOf(
			record.Like(mapper.PostContent, q),
			record.Like(mapper.PostUsername, q),
			record.Like(mapper.PostDisplayName, q),
			record.Like(mapper.PostHashtags, q),
		)},
	})
	if err != nil {
		return nil, fmt.Errorf("posts.Search: %w", err)
	}
	return s.mapAll(recs), nil
}
