package view

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
)

// FeedScreen — лента с оптимистичным лайком.
type FeedScreen struct {
	*Screen[struct{}, FeedView]
	posts *service.PostService
}

func NewFeedScreen(l *Loader) *FeedScreen {
	return &FeedScreen{
		Screen: NewScreen(func(ctx context.Context, _ struct{}) (FeedView, error) { return l.Feed(ctx) }),
		posts:  l.svc.Posts,
	}
}

func (s *FeedScreen) Refresh(ctx context.Context) error { return s.Load(ctx, struct{}{}) }

func (s *FeedScreen) ToggleLike(ctx context.Context, postID int64, userID string) error {
	var before []string
	return optimistic(ctx, s.Screen,
		func(v *FeedView) {
			if p := findPost(v.Posts, postID); p != nil {
				before = p.Likes
				p.Likes = toggleLocal(p.Likes, userID)
			}
		},
		func(v *FeedView) {
			if p := findPost(v.Posts, postID); p != nil {
				p.Likes = before
			}
		},
		func(ctx context.Context) (func(*FeedView), error) {
			updated, err := s.posts.ToggleLike(ctx, postID, userID)
			if err != nil {
				return nil, err
			}
			return func(v *FeedView) {
				if p := findPost(v.Posts, postID); p != nil {
					*p = updated
				}
			}, nil
		},
	)
}

func findPost(posts []model.Post, id int64) *model.Post {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i]
		}
	}
	return nil
}

func toggleLocal(tokens []string, token string) []string {
	out := make([]string, 0, len(tokens)+1)
	found := false
	for _, t := range tokens {
		if t == token {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, token)
	}
	return out
}

// ProfileScreen — профиль по username с оптимистичной подпиской.
type ProfileScreen struct {
	*Screen[string, ProfileView]
	users *service.UserService
}

func NewProfileScreen(l *Loader, viewer model.Viewer) *ProfileScreen {
	return &ProfileScreen{
		Screen: NewScreen(func(ctx context.Context, username string) (ProfileView, error) {
			return l.Profile(ctx, username, viewer)
		}),
		users: l.svc.Users,
	}
}

func (s *ProfileScreen) ToggleFollow(ctx context.Context) error {
	var before model.User
	return optimistic(ctx, s.Screen,
		func(v *ProfileView) {
			before = v.User
			v.User.IsFollowing = !v.User.IsFollowing
			if v.User.IsFollowing {
				v.User.FollowersCount++
			} else {
				v.User.FollowersCount = max(0, v.User.FollowersCount-1)
			}
		},
		func(v *ProfileView) { v.User = before },
		func(ctx context.Context) (func(*ProfileView), error) {
			var (
				updated model.User
				err     error
			)
			if before.IsFollowing {
				updated, err = s.users.Unfollow(ctx, before.ID)
			} else {
				updated, err = s.users.Follow(ctx, before.ID)
			}
			if err != nil {
				return nil, err
			}
			return func(v *ProfileView) { v.User = updated }, nil
		},
	)
}

// ChatRoomScreen — комната чата; отправка сначала показывает сообщение как pending.
type ChatRoomScreen struct {
	*Screen[int64, ChatRoomView]
	messages *service.MessageService
	viewer   model.Viewer
	now      func() time.Time
}

func NewChatRoomScreen(l *Loader, viewer model.Viewer) *ChatRoomScreen {
	return &ChatRoomScreen{
		Screen: NewScreen(func(ctx context.Context, chatID int64) (ChatRoomView, error) {
			return l.ChatRoom(ctx, chatID, viewer.ID)
		}),
		messages: l.svc.Messages,
		viewer:   viewer,
		now:      time.Now,
	}
}

func (s *ChatRoomScreen) Send(ctx context.Context, content string) error {
	chatID := s.State().Key
	pending := model.Message{
		ChatID:         chatID,
		SenderID:       s.viewer.ID,
		SenderUsername: s.viewer.Username,
		Content:        content,
		Timestamp:      s.now(),
		ReadBy:         []string{s.viewer.ID},
		Type:           model.MessageTypeText,
		Pending:        true,
		TempID:         uuid.NewString(),
	}
	return optimistic(ctx, s.Screen,
		func(v *ChatRoomView) { v.Messages = Annotate(append(plain(v.Messages), pending), s.viewer.ID) },
		func(v *ChatRoomView) { v.Messages = Annotate(withoutTemp(v.Messages, pending.TempID), s.viewer.ID) },
		func(ctx context.Context) (func(*ChatRoomView), error) {
			sent, err := s.messages.Send(ctx, s.viewer, chatID, model.MessageInput{Content: content})
			if err != nil {
				return nil, err
			}
			return func(v *ChatRoomView) {
				msgs := plain(v.Messages)
				for i := range msgs {
					if msgs[i].TempID == pending.TempID {
						msgs[i] = sent
					}
				}
				v.Messages = Annotate(msgs, s.viewer.ID)
			}, nil
		},
	)
}

func plain(rms []model.RoomMessage) []model.Message {
	out := make([]model.Message, 0, len(rms)+1)
	for _, rm := range rms {
		out = append(out, rm.Message)
	}
	return out
}

func withoutTemp(rms []model.RoomMessage, tempID string) []model.Message {
	out := make([]model.Message, 0, len(rms))
	for _, rm := range rms {
		if rm.TempID != tempID {
			out = append(out, rm.Message)
		}
	}
	return out
}

// NotificationsScreen — уведомления по фильтру с оптимистичной отметкой прочтения.
type NotificationsScreen struct {
	*Screen[string, NotificationsView]
	notifications *service.NotificationService
}

func NewNotificationsScreen(l *Loader) *NotificationsScreen {
	return &NotificationsScreen{
		Screen:        NewScreen(l.Notifications),
		notifications: l.svc.Notifications,
	}
}

func (s *NotificationsScreen) MarkRead(ctx context.Context, id int64) error {
	var (
		before  model.Notification
		changed bool
	)
	return optimistic(ctx, s.Screen,
		func(v *NotificationsView) {
			for i := range v.Notifications {
				if v.Notifications[i].ID == id && !v.Notifications[i].IsRead {
					before, changed = v.Notifications[i], true
					v.Notifications[i].IsRead = true
					v.UnreadCount--
				}
			}
		},
		func(v *NotificationsView) {
			if !changed {
				return
			}
			for i := range v.Notifications {
				if v.Notifications[i].ID == id {
					v.Notifications[i] = before
					v.UnreadCount++
				}
			}
		},
		func(ctx context.Context) (func(*NotificationsView), error) {
			updated, err := s.notifications.MarkAsRead(ctx, id)
			if err != nil {
				return nil, err
			}
			return func(v *NotificationsView) {
				for i := range v.Notifications {
					if v.Notifications[i].ID == id {
						v.Notifications[i] = updated
					}
				}
			}, nil
		},
	)
}
