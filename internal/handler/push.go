package handler

import (
	"errors"
	"net/http"

	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/push"
	"github.com/miamiwave/internal/record"
)

// PushHandler обрабатывает подписку браузера на пуш-уведомления.
type PushHandler struct {
	sender *push.Sender
}

func NewPushHandler(sender *push.Sender) *PushHandler {
	return &PushHandler{sender: sender}
}

// SubscribeRequest — тело от фронта (subscription из PushManager.getSubscription()).
type SubscribeRequest struct {
	Subscription push.Subscription `json:"subscription"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := record.AsInt(middleware.GetUserID(r.Context()))
	err := h.sender.Subscribe(r.Context(), userID, req.Subscription)
	switch {
	case errors.Is(err, push.ErrInvalidSubscription):
		writeError(w, http.StatusBadRequest, "subscription.endpoint and subscription.keys required")
	case err != nil:
		writeServiceError(w, "push.Subscribe", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// UnsubscribeRequest — тело для отписки по endpoint.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint required")
		return
	}
	userID := record.AsInt(middleware.GetUserID(r.Context()))
	if err := h.sender.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		writeServiceError(w, "push.Unsubscribe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
