package view

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/record/recordtest"
)

func TestScreen_DiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewScreen(func(ctx context.Context, chatID int64) (string, error) {
		if chatID == 1 {
			close(started)
			<-release
		}
		return fmt.Sprintf("chat %d", chatID), nil
	})

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), 1) }()
	<-started

	require.NoError(t, s.Load(context.Background(), 2))
	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	st := s.State()
	assert.Equal(t, int64(2), st.Key)
	assert.Equal(t, Ready, st.Status)
	assert.Equal(t, "chat 2", st.Data)
}

func TestScreen_StatusAndRetry(t *testing.T) {
	calls := 0
	s := NewScreen(func(ctx context.Context, key string) (int, error) {
		calls++
		switch {
		case key == "missing":
			return 0, record.NotFound(record.CollectionUser, 9)
		case calls == 1:
			return 0, record.TransportError("list", record.CollectionPost, "down", nil)
		}
		return calls, nil
	})
	ctx := context.Background()

	assert.ErrorIs(t, s.Retry(ctx), ErrNoKey)

	err := s.Load(ctx, "feed")
	assert.ErrorIs(t, err, record.ErrTransport)
	assert.Equal(t, Failed, s.State().Status)

	require.NoError(t, s.Retry(ctx))
	assert.Equal(t, Ready, s.State().Status)
	assert.Equal(t, 2, s.State().Data)

	err = s.Load(ctx, "missing")
	assert.True(t, errors.Is(err, record.ErrNotFound))
	assert.Equal(t, NotFound, s.State().Status)
}

func TestFeedScreen_ToggleLikeRollsBack(t *testing.T) {
	e := newEnv(t)
	ids := e.store.Seed(record.CollectionPost, record.Record{mapper.PostContent: "hi", mapper.PostLikes: "u2"})
	feed := NewFeedScreen(e.loader)
	ctx := context.Background()
	require.NoError(t, feed.Refresh(ctx))

	e.spy.FailOn(recordtest.OpUpdate, record.CollectionPost, record.TransportError("update", record.CollectionPost, "down", nil))
	err := feed.ToggleLike(ctx, ids[0], "u1")
	assert.ErrorIs(t, err, record.ErrTransport)
	assert.Equal(t, []string{"u2"}, feed.State().Data.Posts[0].Likes)
}

func TestFeedScreen_ToggleLikeConfirms(t *testing.T) {
	e := newEnv(t)
	ids := e.store.Seed(record.CollectionPost, record.Record{mapper.PostContent: "hi", mapper.PostLikes: "u2"})
	feed := NewFeedScreen(e.loader)
	ctx := context.Background()
	require.NoError(t, feed.Refresh(ctx))

	require.NoError(t, feed.ToggleLike(ctx, ids[0], "u1"))
	assert.Equal(t, []string{"u2", "u1"}, feed.State().Data.Posts[0].Likes)
}

func TestFeedScreen_NotReady(t *testing.T) {
	e := newEnv(t)
	feed := NewFeedScreen(e.loader)
	assert.ErrorIs(t, feed.ToggleLike(context.Background(), 1, "u1"), ErrNotReady)
	assert.Equal(t, 0, e.spy.Writes(record.CollectionPost))
}

func TestProfileScreen_ToggleFollow(t *testing.T) {
	e := newEnv(t)
	e.store.Seed(record.CollectionUser, record.Record{mapper.UserUsername: "bob", mapper.UserFollowersCount: 2})
	p := NewProfileScreen(e.loader, ana)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx, "bob"))

	require.NoError(t, p.ToggleFollow(ctx))
	assert.True(t, p.State().Data.User.IsFollowing)
	assert.Equal(t, 3, p.State().Data.User.FollowersCount)

	e.spy.FailOn(recordtest.OpUpdate, record.CollectionUser, record.TransportError("update", record.CollectionUser, "down", nil))
	assert.Error(t, p.ToggleFollow(ctx))
	assert.True(t, p.State().Data.User.IsFollowing)
	assert.Equal(t, 3, p.State().Data.User.FollowersCount)
}

func TestChatRoomScreen_Send(t *testing.T) {
	e := newEnv(t)
	e.store.Seed(record.CollectionChat, record.Record{record.FieldID: 5})
	room := NewChatRoomScreen(e.loader, ana)
	ctx := context.Background()
	require.NoError(t, room.Load(ctx, 5))

	require.NoError(t, room.Send(ctx, "hi"))
	msgs := room.State().Data.Messages
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Pending)
	assert.Empty(t, msgs[0].TempID)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.True(t, msgs[0].IsOwn)
}

func TestChatRoomScreen_SendRollsBack(t *testing.T) {
	e := newEnv(t)
	e.store.Seed(record.CollectionChat, record.Record{record.FieldID: 5})
	room := NewChatRoomScreen(e.loader, ana)
	ctx := context.Background()
	require.NoError(t, room.Load(ctx, 5))

	e.spy.FailOn(recordtest.OpCreate, record.CollectionMessage, record.TransportError("create", record.CollectionMessage, "down", nil))
	assert.ErrorIs(t, room.Send(ctx, "hi"), record.ErrTransport)
	assert.Empty(t, room.State().Data.Messages)
}

func TestNotificationsScreen_MarkRead(t *testing.T) {
	e := newEnv(t)
	ids := e.store.Seed(record.CollectionNotification,
		record.Record{mapper.NotificationType: "like"},
		record.Record{mapper.NotificationType: "follow"},
	)
	n := NewNotificationsScreen(e.loader)
	ctx := context.Background()
	require.NoError(t, n.Load(ctx, FilterAll))
	require.Equal(t, 2, n.State().Data.UnreadCount)

	require.NoError(t, n.MarkRead(ctx, ids[0]))
	assert.Equal(t, 1, n.State().Data.UnreadCount)

	e.spy.FailOn(recordtest.OpUpdate, record.CollectionNotification, record.TransportError("update", record.CollectionNotification, "down", nil))
	assert.Error(t, n.MarkRead(ctx, ids[1]))
	st := n.State().Data
	assert.Equal(t, 1, st.UnreadCount)
	for _, item := range st.Notifications {
		if item.ID == ids[1] {
			assert.False(t, item.IsRead)
		}
	}
}
