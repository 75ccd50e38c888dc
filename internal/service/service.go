// Package service — сервисы коллекций поверх record.Gateway: чтение с маппингом в модели
// представления и запись через Coordinator с денормализующими побочными эффектами.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

// Broadcaster рассылает события реального времени участникам чата. Может быть nil.
type Broadcaster interface {
	MessageCreated(ctx context.Context, m model.Message)
	MessagesRead(ctx context.Context, chatID int64, userID string)
}

// Pusher доставляет web push получателю уведомления. Может быть nil.
type Pusher interface {
	Notify(ctx context.Context, userID int64, title, body string, data map[string]string)
}

type Option func(*options)

type options struct {
	now         func() time.Time
	broadcaster Broadcaster
	pusher      Pusher
	comments    *CommentStore
}

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithBroadcaster(b Broadcaster) Option { return func(o *options) { o.broadcaster = b } }

func WithPusher(p Pusher) Option { return func(o *options) { o.pusher = p } }

func WithComments(cs *CommentStore) Option { return func(o *options) { o.comments = cs } }

// Services — все сервисы над одним явно переданным шлюзом.
type Services struct {
	Coordinator   *Coordinator
	Posts         *PostService
	Users         *UserService
	Chats         *ChatService
	Messages      *MessageService
	Notifications *NotificationService
	Channels      *ChannelService
	Settings      *SettingsService
	Comments      *CommentStore
}

func New(gw record.Gateway, opts ...Option) *Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.comments == nil {
		o.comments = NewCommentStore()
	}
	b := base{gw: gw, co: NewCoordinator(gw), now: o.now}
	chats := &ChatService{base: b}
	return &Services{
		Coordinator:   b.co,
		Posts:         &PostService{base: b, comments: o.comments},
		Users:         &UserService{base: b},
		Chats:         chats,
		Messages:      &MessageService{base: b, chats: chats, broadcaster: o.broadcaster},
		Notifications: &NotificationService{base: b, pusher: o.pusher},
		Channels:      &ChannelService{base: b},
		Settings:      &SettingsService{base: b},
		Comments:      o.comments,
	}
}

type base struct {
	gw  record.Gateway
	co  *Coordinator
	now func() time.Time
}

func (b base) timestamp() string { return record.FormatTime(b.now()) }

// normalizeQuery — пустой или пробельный запрос означает "нет результатов".
func normalizeQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	return q, q != ""
}

// sortNewestFirst — стабильная сортировка по убыванию времени; равные сохраняют порядок выборки.
func sortNewestFirst[T any](items []T, ts func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return ts(items[i]).After(ts(items[j])) })
}

func sortOldestFirst[T any](items []T, ts func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return ts(items[i]).Before(ts(items[j])) })
}

// toggle удаляет token из набора, если он есть (все вхождения), иначе добавляет в конец.
func toggle(tokens []string, token string) ([]string, bool) {
	if record.HasToken(tokens, token) {
		out := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if t != token {
				out = append(out, t)
			}
		}
		return out, false
	}
	return append(append(make([]string, 0, len(tokens)+1), tokens...), token), true
}

// appendUnique добавляет token, если его нет; changed=false — набор не изменился.
func appendUnique(tokens []string, token string) ([]string, bool) {
	if record.HasToken(tokens, token) {
		return tokens, false
	}
	return append(append(make([]string, 0, len(tokens)+1), tokens...), token), true
}
