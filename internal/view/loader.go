// Package view собирает данные экранов из нескольких вызовов сервисов.
// Независимые чтения выполняются параллельно; сбой любого из них проваливает всю загрузку.
package view

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
)

const (
	TrendingPosts  = 10
	SuggestedUsers = 8
	// TimeGap — пауза между сообщениями, после которой снова показывается время.
	TimeGap = 5 * time.Minute
)

// Фильтры экрана уведомлений; любое другое значение трактуется как тип уведомления.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
)

type Loader struct {
	svc *service.Services
}

func NewLoader(svc *service.Services) *Loader {
	return &Loader{svc: svc}
}

type FeedView struct {
	Posts []model.Post `json:"posts"`
}

type DiscoverView struct {
	Trending  []model.Post `json:"trending"`
	Suggested []model.User `json:"suggested"`
}

type SearchView struct {
	Query string       `json:"query"`
	Posts []model.Post `json:"posts"`
	Users []model.User `json:"users"`
}

type ChatRoomView struct {
	Chat     model.Chat          `json:"chat"`
	Messages []model.RoomMessage `json:"messages"`
}

type ChatsView struct {
	Chats       []model.ChatSummary `json:"chats"`
	TotalUnread int                 `json:"totalUnread"`
}

type ProfileView struct {
	User       model.User   `json:"user"`
	Posts      []model.Post `json:"posts"`
	IsOwn      bool         `json:"isOwn"`
	MediaCount int          `json:"mediaCount"`
	TotalLikes int          `json:"totalLikes"`
}

type NotificationsView struct {
	Filter        string               `json:"filter"`
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

type ChannelsView struct {
	Channels []model.Channel `json:"channels"`
	Trending []model.Channel `json:"trending"`
}

func (l *Loader) Feed(ctx context.Context) (FeedView, error) {
	defer logger.DeferLogDuration("view.Feed", time.Now())()
	posts, err := l.svc.Posts.GetAll(ctx)
	if err != nil {
		return FeedView{}, fmt.Errorf("view.Feed: %w", err)
	}
	return FeedView{Posts: posts}, nil
}

// Trending — посты по likes+comments по убыванию; равные остаются в порядке ленты.
func Trending(posts []model.Post, limit int) []model.Post {
	out := make([]model.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Engagement() > out[j].Engagement() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (l *Loader) Discover(ctx context.Context) (DiscoverView, error) {
	defer logger.DeferLogDuration("view.Discover", time.Now())()
	var (
		posts []model.Post
		users []model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		posts, err = l.svc.Posts.GetAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = l.svc.Users.GetSuggested(gctx, SuggestedUsers)
		return err
	})
	if err := g.Wait(); err != nil {
		return DiscoverView{}, fmt.Errorf("view.Discover: %w", err)
	}
	return DiscoverView{Trending: Trending(posts, TrendingPosts), Suggested: users}, nil
}

// Search — пустой запрос сразу даёт пустой результат без обращения к хранилищу.
func (l *Loader) Search(ctx context.Context, query string) (SearchView, error) {
	q := strings.TrimSpace(query)
	out := SearchView{Query: q, Posts: []model.Post{}, Users: []model.User{}}
	if q == "" {
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Posts, err = l.svc.Posts.Search(gctx, q)
		return err
	})
	g.Go(func() (err error) {
		out.Users, err = l.svc.Users.Search(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchView{}, fmt.Errorf("view.Search: %w", err)
	}
	return out, nil
}

func (l *Loader) ChatRoom(ctx context.Context, chatID int64, viewerID string) (ChatRoomView, error) {
	defer logger.DeferLogDuration("view.ChatRoom", time.Now())()
	var (
		chat model.Chat
		msgs []model.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chat, err = l.svc.Chats.GetByID(gctx, chatID)
		return err
	})
	g.Go(func() (err error) {
		msgs, err = l.svc.Messages.GetByChatID(gctx, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ChatRoomView{}, fmt.Errorf("view.ChatRoom: %w", err)
	}
	return ChatRoomView{Chat: chat, Messages: Annotate(msgs, viewerID)}, nil
}

// Annotate вычисляет флаги отображения по упорядоченной ленте сообщений.
// Аватар показывается у чужого сообщения, если предыдущее от другого отправителя (у первого всегда);
// время — у первого сообщения и после паузы больше TimeGap.
func Annotate(msgs []model.Message, viewerID string) []model.RoomMessage {
	out := make([]model.RoomMessage, 0, len(msgs))
	for i, m := range msgs {
		own := m.SenderID == viewerID
		rm := model.RoomMessage{Message: m, IsOwn: own, ShowAvatar: !own, ShowTime: true}
		if i > 0 {
			prev := msgs[i-1]
			rm.ShowAvatar = !own && prev.SenderID != m.SenderID
			rm.ShowTime = m.Timestamp.Sub(prev.Timestamp) > TimeGap
		}
		out = append(out, rm)
	}
	return out
}

// Chats — список чатов с непрочитанными; query фильтрует по названию, участникам и последнему сообщению.
func (l *Loader) Chats(ctx context.Context, viewerID, query string) (ChatsView, error) {
	defer logger.DeferLogDuration("view.Chats", time.Now())()
	var (
		chats []model.Chat
		msgs  []model.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chats, err = l.svc.Chats.GetAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		msgs, err = l.svc.Messages.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ChatsView{}, fmt.Errorf("view.Chats: %w", err)
	}
	unread := UnreadCounts(msgs, viewerID)

	q := strings.ToLower(strings.TrimSpace(query))
	out := ChatsView{Chats: make([]model.ChatSummary, 0, len(chats))}
	for _, c := range chats {
		if q != "" && !chatMatches(c, q) {
			continue
		}
		out.Chats = append(out.Chats, model.ChatSummary{Chat: c, UnreadCount: unread[c.ID]})
		out.TotalUnread += unread[c.ID]
	}
	return out, nil
}

// UnreadCounts — по чатам: сообщения не от зрителя, которых нет в его read_by.
func UnreadCounts(msgs []model.Message, viewerID string) map[int64]int {
	out := make(map[int64]int)
	for _, m := range msgs {
		if m.Unread(viewerID) {
			out[m.ChatID]++
		}
	}
	return out
}

func chatMatches(c model.Chat, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) {
		return true
	}
	if c.LastMessage != nil && strings.Contains(strings.ToLower(c.LastMessage.Content), q) {
		return true
	}
	for _, p := range c.Participants {
		if strings.Contains(strings.ToLower(p.Username), q) || strings.Contains(strings.ToLower(p.DisplayName), q) {
			return true
		}
	}
	return false
}

func (l *Loader) Profile(ctx context.Context, username string, viewer model.Viewer) (ProfileView, error) {
	defer logger.DeferLogDuration("view.Profile", time.Now())()
	var out ProfileView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.User, err = l.svc.Users.GetByUsername(gctx, username)
		return err
	})
	g.Go(func() (err error) {
		out.Posts, err = l.svc.Posts.GetByUsername(gctx, username)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProfileView{}, fmt.Errorf("view.Profile: %w", err)
	}
	out.IsOwn = viewer.Username != "" && viewer.Username == out.User.Username
	for _, p := range out.Posts {
		if p.ImageURL != "" {
			out.MediaCount++
		}
		out.TotalLikes += len(p.Likes)
	}
	return out, nil
}

func (l *Loader) Notifications(ctx context.Context, filter string) (NotificationsView, error) {
	defer logger.DeferLogDuration("view.Notifications", time.Now())()
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		filter = FilterAll
	}
	// Счётчик непрочитанных всегда по полному списку, поэтому грузим всё и фильтруем здесь.
	all, err := l.svc.Notifications.GetAll(ctx)
	if err != nil {
		return NotificationsView{}, fmt.Errorf("view.Notifications: %w", err)
	}
	out := NotificationsView{Filter: filter, Notifications: make([]model.Notification, 0, len(all))}
	for _, n := range all {
		if !n.IsRead {
			out.UnreadCount++
		}
		switch filter {
		case FilterAll:
		case FilterUnread:
			if n.IsRead {
				continue
			}
		default:
			if string(n.Type) != filter {
				continue
			}
		}
		out.Notifications = append(out.Notifications, n)
	}
	return out, nil
}

func (l *Loader) Channels(ctx context.Context, viewerID string) (ChannelsView, error) {
	defer logger.DeferLogDuration("view.Channels", time.Now())()
	var out ChannelsView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Channels, err = l.svc.Channels.GetAll(gctx, viewerID)
		return err
	})
	g.Go(func() (err error) {
		out.Trending, err = l.svc.Channels.GetTrending(gctx, service.DefaultTrendingChannels, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ChannelsView{}, fmt.Errorf("view.Channels: %w", err)
	}
	return out, nil
}
