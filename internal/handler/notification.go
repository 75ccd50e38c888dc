package handler

import (
	"net/http"

	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/view"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	loader        *view.Loader
}

func NewNotificationHandler(notifications *service.NotificationService, loader *view.Loader) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, loader: loader}
}

// List — экран уведомлений; ?filter=all|unread|<type>.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Notifications(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeViewError(w, "notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.NotificationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.notifications.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, "notifications.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.notifications.MarkAsRead(r.Context(), id)
	if err != nil {
		writeServiceError(w, "notifications.MarkAsRead", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.notifications.MarkAsUnread(r.Context(), id)
	if err != nil {
		writeServiceError(w, "notifications.MarkAsUnread", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllAsRead(r.Context())
	if err != nil {
		writeServiceError(w, "notifications.MarkAllAsRead", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "notifications.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
