package service

import (
	"sync"
	"time"

	"github.com/miamiwave/internal/model"
)

// CommentStore хранит комментарии в памяти процесса: в хранилище записей для них нет коллекции,
// после перезапуска комментарии теряются.
type CommentStore struct {
	mu     sync.RWMutex
	byPost map[int64][]model.Comment
	nextID map[int64]int64
}

func NewCommentStore() *CommentStore {
	return &CommentStore{byPost: make(map[int64][]model.Comment), nextID: make(map[int64]int64)}
}

func (s *CommentStore) Add(postID int64, username, content string, at time.Time) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID[postID]++
	c := model.Comment{ID: s.nextID[postID], Username: username, Content: content, Timestamp: at}
	s.byPost[postID] = append(s.byPost[postID], c)
	return c
}

// For возвращает копию комментариев поста (пустой срез, не nil).
func (s *CommentStore) For(postID int64) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Comment, len(s.byPost[postID]))
	copy(out, s.byPost[postID])
	return out
}

func (s *CommentStore) Forget(postID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPost, postID)
	delete(s.nextID, postID)
}
