package handler

import (
	"net/http"

	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/view"
)

type ChannelHandler struct {
	channels *service.ChannelService
	loader   *view.Loader
}

func NewChannelHandler(channels *service.ChannelService, loader *view.Loader) *ChannelHandler {
	return &ChannelHandler{channels: channels, loader: loader}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Channels(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeViewError(w, "channels", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *ChannelHandler) Search(w http.ResponseWriter, r *http.Request) {
	chs, err := h.channels.Search(r.Context(), r.URL.Query().Get("q"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "channels.Search", err)
		return
	}
	writeJSON(w, http.StatusOK, chs)
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ChannelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ch, err := h.channels.Create(r.Context(), middleware.GetViewer(r.Context()), in)
	if err != nil {
		writeServiceError(w, "channels.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ch, err := h.channels.Join(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "channels.Join", err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ch, err := h.channels.Leave(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "channels.Leave", err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
