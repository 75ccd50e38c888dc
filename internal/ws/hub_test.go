package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/model"
)

type fakeChats map[int64][]string

func (f fakeChats) ParticipantIDs(_ context.Context, chatID int64) ([]string, error) {
	ids, ok := f[chatID]
	if !ok {
		return nil, errors.New("no chat")
	}
	return ids, nil
}

type fakeReads struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeReads) MarkChatAsRead(_ context.Context, chatID int64, userID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	return nil, nil
}

func (f *fakeReads) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePresence struct {
	mu     sync.Mutex
	states map[string]bool
}

func (f *fakePresence) SetOnline(_ context.Context, userID string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[userID] = online
	return nil
}

func (f *fakePresence) get(userID string) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.states[userID]
	return v, ok
}

type env struct {
	hub      *Hub
	srv      *httptest.Server
	reads    *fakeReads
	presence *fakePresence
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		hub:      NewHub(10),
		reads:    &fakeReads{},
		presence: &fakePresence{states: map[string]bool{}},
	}
	e.hub.Bind(fakeChats{5: {"1", "2"}, 6: {"2", "3"}}, e.reads, e.presence)

	ctx, cancel := context.WithCancel(context.Background())
	go e.hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		v := model.Viewer{ID: r.URL.Query().Get("user_id"), Username: "u" + r.URL.Query().Get("user_id")}
		cctx, ccancel := context.WithCancel(ctx)
		c := NewClient(e.hub, conn, v)
		c.Start(cctx, ccancel)
		e.hub.Register(c)
	}))
	t.Cleanup(func() {
		cancel()
		e.srv.Close()
	})
	return e
}

func (e *env) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return e.hub.Online(userID) }, time.Second, 5*time.Millisecond)
	return conn
}

// next читает события до первого с нужным типом.
func next(t *testing.T, conn *websocket.Conn, want EventType) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev struct {
			Type    EventType      `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type == want {
			return ev.Payload
		}
	}
}

func TestHub_MessageCreatedReachesParticipants(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")
	c2 := e.dial(t, "2")

	e.hub.MessageCreated(context.Background(), model.Message{ID: 9, ChatID: 5, SenderID: "1", Content: "hola"})

	for _, conn := range []*websocket.Conn{c1, c2} {
		p := next(t, conn, EventNewMessage)
		assert.EqualValues(t, 5, p["chat_id"])
		msg := p["message"].(map[string]any)
		assert.Equal(t, "hola", msg["content"])
	}
}

func TestHub_MessagesReadSkipsReader(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")
	c2 := e.dial(t, "2")

	e.hub.MessagesRead(context.Background(), 5, "2")
	// Маркер, чтобы убедиться, что до читателя ничего другого не дошло.
	e.hub.MessageCreated(context.Background(), model.Message{ID: 1, ChatID: 5, Content: "after"})

	p := next(t, c1, EventMessageRead)
	assert.Equal(t, "2", p["user_id"])

	require.NoError(t, c2.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev OutgoingMessage
	for {
		require.NoError(t, c2.ReadJSON(&ev))
		assert.NotEqual(t, EventMessageRead, ev.Type)
		if ev.Type == EventNewMessage {
			break
		}
	}
}

func TestHub_TypingRelayedToOthers(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")
	c2 := e.dial(t, "2")

	require.NoError(t, c1.WriteJSON(IncomingMessage{Type: EventTyping, ChatID: 5}))

	p := next(t, c2, EventTyping)
	assert.Equal(t, "1", p["user_id"])
	assert.Equal(t, "u1", p["username"])
}

func TestHub_TypingByOutsiderRejected(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")

	require.NoError(t, c1.WriteJSON(IncomingMessage{Type: EventTyping, ChatID: 6}))
	require.NoError(t, c1.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev OutgoingMessage
	require.NoError(t, c1.ReadJSON(&ev))
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "not a participant", ev.Payload)
}

func TestHub_MessageReadAppliesThroughService(t *testing.T) {
	e := newEnv(t)
	c2 := e.dial(t, "2")

	require.NoError(t, c2.WriteJSON(IncomingMessage{Type: EventMessageRead, ChatID: 5}))
	require.Eventually(t, func() bool { return e.reads.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_UnknownEvent(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")

	require.NoError(t, c1.WriteJSON(map[string]string{"type": "dance"}))
	require.NoError(t, c1.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev OutgoingMessage
	require.NoError(t, c1.ReadJSON(&ev))
	assert.Equal(t, EventError, ev.Type)
}

func TestHub_PresenceFollowsConnections(t *testing.T) {
	e := newEnv(t)
	c1 := e.dial(t, "1")

	online, ok := e.presence.get("1")
	require.Eventually(t, func() bool { online, ok = e.presence.get("1"); return ok }, time.Second, 5*time.Millisecond)
	assert.True(t, online)

	c1.Close()
	require.Eventually(t, func() bool { return !e.hub.Online("1") }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { online, _ = e.presence.get("1"); return !online }, time.Second, 5*time.Millisecond)
	assert.Zero(t, e.hub.Connections())
}

func TestHub_ConnectionLimit(t *testing.T) {
	e := newEnv(t)
	e.hub.maxConns = 1
	e.dial(t, "1")

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?user_id=2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.False(t, e.hub.Online("2"))
}

func TestClient_TypingThrottle(t *testing.T) {
	c := &Client{lastTyping: make(map[int64]time.Time)}
	now := time.Now()
	assert.False(t, c.throttled(5, now))
	assert.True(t, c.throttled(5, now.Add(time.Second)))
	assert.False(t, c.throttled(6, now.Add(time.Second)))
	assert.False(t, c.throttled(5, now.Add(typingInterval)))
}

func TestHub_Full(t *testing.T) {
	e := newEnv(t)
	e.hub.maxConns = 1
	assert.False(t, e.hub.Full())
	e.dial(t, "1")
	assert.True(t, e.hub.Full())
}
