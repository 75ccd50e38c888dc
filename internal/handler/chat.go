package handler

import (
	"net/http"

	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/view"
)

type ChatHandler struct {
	chats    *service.ChatService
	messages *service.MessageService
	loader   *view.Loader
}

func NewChatHandler(chats *service.ChatService, messages *service.MessageService, loader *view.Loader) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages, loader: loader}
}

// List — список чатов с непрочитанными; ?q= фильтрует по имени, последнему сообщению и участникам.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Chats(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeViewError(w, "chats", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ChatInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.chats.Create(r.Context(), middleware.GetViewer(r.Context()), in)
	if err != nil {
		writeServiceError(w, "chats.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Room — экран чата: чат и сообщения с флагами отображения.
func (h *ChatHandler) Room(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.loader.ChatRoom(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeViewError(w, "chat room", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in model.MessageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	// Чат должен существовать до записи сообщения.
	if _, err := h.chats.ParticipantIDs(r.Context(), id); err != nil {
		writeServiceError(w, "messages.Send", err)
		return
	}
	m, err := h.messages.Send(r.Context(), middleware.GetViewer(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, "messages.Send", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// MarkRead отмечает прочитанными все сообщения чата.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msgs, err := h.messages.MarkChatAsRead(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "messages.MarkChatAsRead", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// MarkMessageRead отмечает прочитанным одно сообщение.
func (h *ChatHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.messages.MarkAsRead(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "messages.MarkAsRead", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
