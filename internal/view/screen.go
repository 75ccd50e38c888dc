package view

import (
	"context"
	"errors"
	"sync"

	"github.com/miamiwave/internal/record"
)

type Status int

const (
	Loading Status = iota
	Ready
	Failed
	NotFound
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var (
	// ErrStale — ответ пришёл после перехода на другой ключ и отброшен.
	ErrStale = errors.New("view: stale response discarded")
	// ErrNoKey — Retry до первой загрузки.
	ErrNoKey = errors.New("view: nothing to retry")
	// ErrNotReady — действие над экраном, который ещё не загружен или упал.
	ErrNotReady = errors.New("view: screen is not ready")
)

// State — снимок экрана.
type State[K comparable, T any] struct {
	Key    K
	Status Status
	Data   T
	Err    error
}

// Screen держит локальное состояние одного экрана. Каждая загрузка получает поколение;
// ответ устаревшего поколения не применяется.
type Screen[K comparable, T any] struct {
	load func(context.Context, K) (T, error)

	mu     sync.Mutex
	gen    uint64
	hasKey bool
	state  State[K, T]
}

func NewScreen[K comparable, T any](load func(context.Context, K) (T, error)) *Screen[K, T] {
	return &Screen[K, T]{load: load}
}

// Load загружает данные для key. Возвращает ErrStale, если за время загрузки начата другая.
func (s *Screen[K, T]) Load(ctx context.Context, key K) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.hasKey = true
	var zero T
	s.state = State[K, T]{Key: key, Status: Loading, Data: zero}
	s.mu.Unlock()

	data, err := s.load(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStale
	}
	switch {
	case err == nil:
		s.state.Status = Ready
		s.state.Data = data
	case errors.Is(err, record.ErrNotFound):
		s.state.Status = NotFound
		s.state.Err = err
	default:
		s.state.Status = Failed
		s.state.Err = err
	}
	return err
}

// Retry повторяет загрузку последнего ключа.
func (s *Screen[K, T]) Retry(ctx context.Context) error {
	s.mu.Lock()
	key, ok := s.state.Key, s.hasKey
	s.mu.Unlock()
	if !ok {
		return ErrNoKey
	}
	return s.Load(ctx, key)
}

func (s *Screen[K, T]) State() State[K, T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// mutate меняет данные готового экрана для key; false — экран не готов или показывает другой ключ.
func (s *Screen[K, T]) mutate(key K, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != Ready || s.state.Key != key {
		return false
	}
	fn(&s.state.Data)
	return true
}

// optimistic применяет apply сразу, затем выполняет commit. При успехе confirm перезаписывает
// локальное состояние ответом сервера, при ошибке rollback возвращает прежнее.
func optimistic[K comparable, T any](ctx context.Context, s *Screen[K, T], apply, rollback func(*T), commit func(context.Context) (func(*T), error)) error {
	key := s.State().Key
	if !s.mutate(key, apply) {
		return ErrNotReady
	}
	confirm, err := commit(ctx)
	if err != nil {
		s.mutate(key, rollback)
		return err
	}
	s.mutate(key, confirm)
	return nil
}
