// Package ws — realtime-доставка событий чатов подключённым зрителям.
// Hub реализует service.Broadcaster: сервис сообщений сообщает о новых и прочитанных сообщениях,
// хаб рассылает их участникам чата.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/model"
)

// ChatDirectory отдаёт участников чата.
type ChatDirectory interface {
	ParticipantIDs(ctx context.Context, chatID int64) ([]string, error)
}

// ReadMarker отмечает сообщения чата прочитанными.
type ReadMarker interface {
	MarkChatAsRead(ctx context.Context, chatID int64, userID string) ([]model.Message, error)
}

// Presence хранит флаг онлайна пользователя. Может быть nil.
type Presence interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

const opTimeout = 5 * time.Second

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	total    int
	maxConns int

	chats    ChatDirectory
	reads    ReadMarker
	presence Presence

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = 10000
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		maxConns:   maxConns,
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

// Bind подключает сервисы. Хаб создаётся раньше сервисов (он их Broadcaster),
// поэтому зависимости передаются после сборки, до Run.
func (h *Hub) Bind(chats ChatDirectory, reads ReadMarker, presence Presence) {
	h.chats = chats
	h.reads = reads
	h.presence = presence
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) shutdown() {
	// I/O не под мьютексом.
	h.mu.Lock()
	allClients := make([]*Client, 0, h.total)
	for _, clients := range h.clients {
		for c := range clients {
			allClients = append(allClients, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range allClients {
		c.Close()
	}
	for _, c := range allClients {
		c.Wait()
	}
}

// Online — есть ли у пользователя хотя бы одно подключение.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Full — достигнут ли лимит подключений.
func (h *Hub) Full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total >= h.maxConns
}

// Connections — общее число подключений.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if h.total >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting user=%s", h.maxConns, c.userID)
		c.Close()
		return
	}
	first := len(h.clients[c.userID]) == 0
	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.total++
	h.mu.Unlock()

	if first {
		h.setPresence(c.userID, true)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	clients, ok := h.clients[c.userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[c]; !exists {
		h.mu.Unlock()
		return
	}
	delete(clients, c)
	h.total--
	lastClient := len(clients) == 0
	if lastClient {
		delete(h.clients, c.userID)
	}
	h.mu.Unlock()

	c.Close()

	if lastClient {
		h.setPresence(c.userID, false)
	}
}

func (h *Hub) setPresence(userID string, online bool) {
	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		err := h.presence.SetOnline(ctx, userID, online)
		cancel()
		if err != nil {
			logger.Warnf("ws set online=%v user=%s: %v", online, userID, err)
		}
	}
	evType := EventUserOffline
	if online {
		evType = EventUserOnline
	}
	h.sendToAllExcept(userID, OutgoingMessage{Type: evType, Payload: UserStatusPayload{UserID: userID, Online: online}})
}

// HandleMessage dispatches incoming WebSocket messages.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, msg IncomingMessage) {
	switch msg.Type {
	case EventTyping:
		h.handleTyping(ctx, c, msg)
	case EventMessageRead:
		h.handleMessageRead(ctx, c, msg)
	default:
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "unknown event type"})
	}
}

// participants возвращает участников чата, если c среди них.
func (h *Hub) participants(ctx context.Context, c *Client, chatID int64) ([]string, bool) {
	if h.chats == nil || chatID <= 0 {
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "chat_id required"})
		return nil, false
	}
	ids, err := h.chats.ParticipantIDs(ctx, chatID)
	if err != nil {
		logger.Errorf("ws get participants chat=%d: %v", chatID, err)
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "chat unavailable"})
		return nil, false
	}
	for _, id := range ids {
		if id == c.userID {
			return ids, true
		}
	}
	h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "not a participant"})
	return nil, false
}

func (h *Hub) handleTyping(ctx context.Context, c *Client, msg IncomingMessage) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ids, ok := h.participants(ctx, c, msg.ChatID)
	if !ok {
		return
	}
	out := OutgoingMessage{Type: EventTyping, Payload: TypingPayload{
		ChatID:   msg.ChatID,
		UserID:   c.userID,
		Username: c.viewer.Username,
	}}
	for _, uid := range ids {
		if uid != c.userID {
			h.sendToUser(uid, out)
		}
	}
}

func (h *Hub) handleMessageRead(ctx context.Context, c *Client, msg IncomingMessage) {
	defer logger.DeferLogDuration("ws.handleMessageRead", time.Now())()
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, ok := h.participants(ctx, c, msg.ChatID); !ok {
		return
	}
	if h.reads == nil {
		return
	}
	// Рассылку message_read делает сервис через MessagesRead.
	if _, err := h.reads.MarkChatAsRead(ctx, msg.ChatID, c.userID); err != nil {
		logger.Errorf("ws mark read chat=%d user=%s: %v", msg.ChatID, c.userID, err)
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "failed to mark read"})
	}
}

// MessageCreated рассылает новое сообщение всем участникам чата, включая другие вкладки отправителя.
func (h *Hub) MessageCreated(ctx context.Context, m model.Message) {
	defer logger.DeferLogDuration("ws.MessageCreated", time.Now())()
	h.broadcastToChat(ctx, m.ChatID, "", OutgoingMessage{
		Type:    EventNewMessage,
		Payload: NewMessagePayload{ChatID: m.ChatID, Message: m},
	})
}

// MessagesRead сообщает остальным участникам, что userID прочитал чат.
func (h *Hub) MessagesRead(ctx context.Context, chatID int64, userID string) {
	h.broadcastToChat(ctx, chatID, userID, OutgoingMessage{
		Type:    EventMessageRead,
		Payload: MessageReadPayload{ChatID: chatID, UserID: userID},
	})
}

func (h *Hub) broadcastToChat(ctx context.Context, chatID int64, except string, msg OutgoingMessage) {
	if h.chats == nil {
		return
	}
	ids, err := h.chats.ParticipantIDs(ctx, chatID)
	if err != nil {
		logger.Warnf("ws broadcast to chat %d: %v", chatID, err)
		return
	}
	for _, uid := range ids {
		if uid != except {
			h.sendToUser(uid, msg)
		}
	}
}

func (h *Hub) targets(match func(userID string) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, 4)
	for uid, clients := range h.clients {
		if !match(uid) {
			continue
		}
		for c := range clients {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) sendToUser(userID string, msg OutgoingMessage) {
	for _, c := range h.targets(func(uid string) bool { return uid == userID }) {
		h.sendToClient(c, msg)
	}
}

func (h *Hub) sendToAllExcept(userID string, msg OutgoingMessage) {
	for _, c := range h.targets(func(uid string) bool { return uid != userID }) {
		h.sendToClient(c, msg)
	}
}

func (h *Hub) sendToClient(c *Client, msg OutgoingMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		// Backpressure: send buffer full, close slow client.
		logger.Errorf("ws send buffer full, closing slow client user=%s", c.userID)
		c.Close()
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
